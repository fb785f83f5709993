package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"asistencia/internal/models"
)

// ListAttendanceRecords returns the attendance of a ficha's aprendices for
// sessions dated within [from, to], ordered by date.
func (d *DB) ListAttendanceRecords(ctx context.Context, fichaID uuid.UUID, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := `
		SELECT a.aprendiz_id, s.id, s.fecha, a.presente, a.justificada
		FROM asistencias a
		JOIN sesiones_asistencia s ON s.id = a.sesion_id
		WHERE s.ficha_id = $1 AND s.fecha BETWEEN $2 AND $3
		ORDER BY s.fecha ASC, a.aprendiz_id ASC
	`

	rows, err := d.Pool.Query(ctx, query, fichaID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.StudentID, &r.SessionID, &r.SessionDate, &r.Present, &r.Justified); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// CreateSession stores a session and its attendance marks in one transaction.
// Every aprendiz must belong to the ficha.
func (d *DB) CreateSession(ctx context.Context, fichaID uuid.UUID, fecha time.Time, tema string, marks []models.AttendanceMark) (*models.Session, error) {
	seen := make(map[uuid.UUID]bool, len(marks))
	ids := make([]uuid.UUID, 0, len(marks))
	for _, m := range marks {
		if seen[m.AprendizID] {
			return nil, ErrDuplicateMark
		}
		seen[m.AprendizID] = true
		ids = append(ids, m.AprendizID)
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var enrolled int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM aprendices WHERE ficha_id = $1 AND id = ANY($2)
	`, fichaID, ids).Scan(&enrolled)
	if err != nil {
		return nil, fmt.Errorf("failed to verify aprendices: %w", err)
	}
	if enrolled != len(ids) {
		return nil, ErrAprendizNotInFicha
	}

	session := &models.Session{FichaID: fichaID, Fecha: models.NewDate(fecha).Time(), Tema: tema}
	err = tx.QueryRow(ctx, `
		INSERT INTO sesiones_asistencia (ficha_id, fecha, tema)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, fichaID, session.Fecha, tema).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateSession
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range marks {
		batch.Queue(`
			INSERT INTO asistencias (sesion_id, aprendiz_id, presente, justificada, observacion)
			VALUES ($1, $2, $3, $4, $5)
		`, session.ID, m.AprendizID, m.Presente, m.Justificada, m.Observacion)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to store attendance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return session, nil
}
