package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"asistencia/internal/models"
)

// CreateFicha creates a new ficha.
func (d *DB) CreateFicha(ctx context.Context, ficha *models.Ficha) error {
	query := `
		INSERT INTO fichas (numero, programa, activa)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query, ficha.Numero, ficha.Programa, ficha.Activa).Scan(
		&ficha.ID, &ficha.CreatedAt, &ficha.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateFicha
		}
		return fmt.Errorf("failed to create ficha: %w", err)
	}
	return nil
}

// GetFichaByNumero retrieves a ficha by its number.
func (d *DB) GetFichaByNumero(ctx context.Context, numero string) (*models.Ficha, error) {
	query := `
		SELECT id, numero, programa, activa, created_at, updated_at
		FROM fichas WHERE numero = $1
	`

	var f models.Ficha
	err := d.Pool.QueryRow(ctx, query, numero).Scan(
		&f.ID, &f.Numero, &f.Programa, &f.Activa, &f.CreatedAt, &f.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFichaNotFound
	}
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// ListActiveFichas returns all active fichas ordered by number.
func (d *DB) ListActiveFichas(ctx context.Context) ([]models.Ficha, error) {
	query := `
		SELECT id, numero, programa, activa, created_at, updated_at
		FROM fichas WHERE activa = TRUE ORDER BY numero ASC
	`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fichas []models.Ficha
	for rows.Next() {
		var f models.Ficha
		if err := rows.Scan(&f.ID, &f.Numero, &f.Programa, &f.Activa, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fichas = append(fichas, f)
	}

	return fichas, rows.Err()
}

// CreateAprendiz enrolls an aprendiz in a ficha.
func (d *DB) CreateAprendiz(ctx context.Context, a *models.Aprendiz) error {
	query := `
		INSERT INTO aprendices (ficha_id, documento, nombres, apellidos, activo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := d.Pool.QueryRow(ctx, query, a.FichaID, a.Documento, a.Nombres, a.Apellidos, a.Activo).Scan(
		&a.ID, &a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAprendiz
		}
		return fmt.Errorf("failed to create aprendiz: %w", err)
	}
	return nil
}

// ListAprendicesByFicha returns every aprendiz of a ficha, active or not, so
// historical reports can still name withdrawn students.
func (d *DB) ListAprendicesByFicha(ctx context.Context, fichaID uuid.UUID) ([]models.Aprendiz, error) {
	query := `
		SELECT id, ficha_id, documento, nombres, apellidos, activo, created_at
		FROM aprendices WHERE ficha_id = $1
		ORDER BY apellidos ASC, nombres ASC
	`

	rows, err := d.Pool.Query(ctx, query, fichaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aprendices []models.Aprendiz
	for rows.Next() {
		var a models.Aprendiz
		if err := rows.Scan(&a.ID, &a.FichaID, &a.Documento, &a.Nombres, &a.Apellidos, &a.Activo, &a.CreatedAt); err != nil {
			return nil, err
		}
		aprendices = append(aprendices, a)
	}

	return aprendices, rows.Err()
}
