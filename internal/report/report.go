// Package report builds attendance risk reports for fichas by feeding stored
// attendance into the alert engine and enriching the result for display.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"asistencia/internal/alerts"
	"asistencia/internal/db"
	"asistencia/internal/models"
)

// ErrFichaNotFound is returned when no ficha has the requested number.
var ErrFichaNotFound = errors.New("ficha not found")

// Store is the read/write surface the reporting service needs from persistence.
type Store interface {
	GetFichaByNumero(ctx context.Context, numero string) (*models.Ficha, error)
	ListActiveFichas(ctx context.Context) ([]models.Ficha, error)
	ListAprendicesByFicha(ctx context.Context, fichaID uuid.UUID) ([]models.Aprendiz, error)
	ListAttendanceRecords(ctx context.Context, fichaID uuid.UUID, from, to time.Time) ([]models.AttendanceRecord, error)
	CreateSession(ctx context.Context, fichaID uuid.UUID, fecha time.Time, tema string, marks []models.AttendanceMark) (*models.Session, error)
}

// Options tunes how much history and detail a report carries.
type Options struct {
	Thresholds         models.Thresholds
	LookbackDays       int
	RecentSessionLimit int
	ScanConcurrency    int
}

// Service builds alert reports.
type Service struct {
	store Store
	opts  Options
}

// NewService creates a new reporting service.
func NewService(store Store, opts Options) *Service {
	if opts.ScanConcurrency < 1 {
		opts.ScanConcurrency = 1
	}
	return &Service{store: store, opts: opts}
}

// Thresholds returns the limits reports are computed with.
func (s *Service) Thresholds() models.Thresholds {
	return s.opts.Thresholds
}

// BuildReport computes the alert report of one ficha for month.
func (s *Service) BuildReport(ctx context.Context, numeroFicha string, month models.Month) (*models.AlertReport, error) {
	ficha, err := s.lookupFicha(ctx, numeroFicha)
	if err != nil {
		return nil, err
	}
	return s.buildForFicha(ctx, ficha, month)
}

func (s *Service) lookupFicha(ctx context.Context, numero string) (*models.Ficha, error) {
	ficha, err := s.store.GetFichaByNumero(ctx, numero)
	if errors.Is(err, db.ErrFichaNotFound) {
		return nil, ErrFichaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ficha %s: %w", numero, err)
	}
	return ficha, nil
}

func (s *Service) buildForFicha(ctx context.Context, ficha *models.Ficha, month models.Month) (*models.AlertReport, error) {
	if !month.IsValid() {
		return nil, fmt.Errorf("%w: %v", alerts.ErrInvalidMonth, month)
	}

	from := month.Start().AddDate(0, 0, -s.opts.LookbackDays)
	records, err := s.store.ListAttendanceRecords(ctx, ficha.ID, from, month.End())
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance for ficha %s: %w", ficha.Numero, err)
	}

	found, err := alerts.Compute(records, month, s.opts.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("ficha %s: %w", ficha.Numero, err)
	}

	report := &models.AlertReport{
		NumeroFicha: ficha.Numero,
		Mes:         month,
		Umbrales:    s.opts.Thresholds,
		Alertas:     make([]models.AlertEntry, 0, len(found)),
	}
	if len(found) == 0 {
		return report, nil
	}

	aprendices, err := s.store.ListAprendicesByFicha(ctx, ficha.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load aprendices for ficha %s: %w", ficha.Numero, err)
	}
	byID := make(map[uuid.UUID]models.Aprendiz, len(aprendices))
	for _, a := range aprendices {
		byID[a.ID] = a
	}

	recent := recentSessions(records, s.opts.RecentSessionLimit)
	for _, alert := range found {
		entry := models.AlertEntry{RiskAlert: alert, SesionesRecientes: recent[alert.StudentID]}
		if a, ok := byID[alert.StudentID]; ok {
			entry.Nombre = a.FullName()
			entry.Documento = a.Documento
		} else {
			slog.Warn("alert for unknown aprendiz", "ficha", ficha.Numero, "aprendiz_id", alert.StudentID)
		}
		report.Alertas = append(report.Alertas, entry)
	}

	return report, nil
}

// ScanResult is the outcome of one ficha in a scan.
type ScanResult struct {
	Ficha  models.Ficha
	Report *models.AlertReport
	Err    error
}

// ScanActive builds the report of every active ficha for month. Fichas are
// processed in parallel; a failure in one ficha is recorded in its result and
// does not stop the others. The returned error is only set when the list of
// fichas cannot be loaded or ctx is cancelled.
func (s *Service) ScanActive(ctx context.Context, month models.Month) ([]ScanResult, error) {
	fichas, err := s.store.ListActiveFichas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active fichas: %w", err)
	}

	results := make([]ScanResult, len(fichas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ScanConcurrency)

	for i := range fichas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := s.buildForFicha(gctx, &fichas[i], month)
			results[i] = ScanResult{Ficha: fichas[i], Report: report, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// recentSessions keeps, per student, the last limit records in date order.
func recentSessions(records []models.AttendanceRecord, limit int) map[uuid.UUID][]models.SessionDetail {
	out := make(map[uuid.UUID][]models.SessionDetail)
	if limit <= 0 {
		return out
	}

	sorted := append([]models.AttendanceRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SessionDate.Before(sorted[j].SessionDate)
	})

	for _, r := range sorted {
		list := append(out[r.StudentID], models.SessionDetail{
			SesionID:    r.SessionID,
			Fecha:       models.NewDate(r.SessionDate),
			Presente:    r.Present,
			Justificada: r.Justified,
		})
		if len(list) > limit {
			list = list[len(list)-limit:]
		}
		out[r.StudentID] = list
	}
	return out
}
