package db

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"asistencia/internal/models"
	"asistencia/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevData inserts a demo ficha with a month of attendance for development.
// Skips everything when the ficha already exists.
func (d *DB) SeedDevData(ctx context.Context) error {
	if _, err := d.GetFichaByNumero(ctx, "2675432"); err == nil {
		return nil
	}

	ficha := &models.Ficha{Numero: "2675432", Programa: "Análisis y Desarrollo de Software", Activa: true}
	if err := d.CreateFicha(ctx, ficha); err != nil {
		return fmt.Errorf("failed to seed ficha: %w", err)
	}

	people := []struct {
		documento string
		nombres   string
		apellidos string
		pattern   string // P present, A absent, J justified
	}{
		{"1001", "Laura", "Gómez", "PPPPPPPPPP"},
		{"1002", "Andrés", "Rojas", "PPPPPPPAAA"},
		{"1003", "Camila", "Torres", "APAPAPAPAP"},
		{"1004", "Julián", "Martínez", "APAPAPPAAA"},
		{"1005", "Valentina", "Díaz", "PJJPJPPJPP"},
	}

	ids := make([]uuid.UUID, len(people))
	for i, p := range people {
		a := &models.Aprendiz{FichaID: ficha.ID, Documento: p.documento, Nombres: p.nombres, Apellidos: p.apellidos, Activo: true}
		if err := d.CreateAprendiz(ctx, a); err != nil {
			return fmt.Errorf("failed to seed aprendiz %s: %w", p.documento, err)
		}
		ids[i] = a.ID
	}

	first := models.MonthOf(time.Now()).Start()
	for day := 0; day < len(people[0].pattern); day++ {
		marks := make([]models.AttendanceMark, len(people))
		for i, p := range people {
			marks[i] = models.AttendanceMark{
				AprendizID:  ids[i],
				Presente:    p.pattern[day] == 'P',
				Justificada: p.pattern[day] == 'J',
			}
		}
		if _, err := d.CreateSession(ctx, ficha.ID, first.AddDate(0, 0, day), "Sesión de práctica", marks); err != nil {
			return fmt.Errorf("failed to seed session %d: %w", day, err)
		}
	}

	return nil
}
