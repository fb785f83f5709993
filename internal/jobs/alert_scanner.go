package jobs

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"asistencia/internal/metrics"
	"asistencia/internal/models"
	"asistencia/internal/report"
)

// Scanner builds the reports of every active ficha.
type Scanner interface {
	ScanActive(ctx context.Context, month models.Month) ([]report.ScanResult, error)
}

// ScanSummary describes one completed scan.
type ScanSummary struct {
	Month  models.Month
	Fichas int
	Failed int
	AtRisk int
}

// AlertScanner periodically recomputes the alerts of all active fichas and
// publishes the counts as metrics.
type AlertScanner struct {
	reports  Scanner
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	now      func() time.Time
}

// ParseSchedule parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", spec, err)
	}
	return sched, nil
}

// NewAlertScanner creates a scanner for the given cron schedule. Times are
// evaluated in loc, which also decides what the current month is.
func NewAlertScanner(reports Scanner, spec string, loc *time.Location) (*AlertScanner, error) {
	sched, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AlertScanner{
		reports:  reports,
		spec:     spec,
		schedule: sched,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Start runs scans on schedule until ctx is cancelled.
func (s *AlertScanner) Start(ctx context.Context) {
	log.Printf("Alert scanner started (cron: %s, timezone: %s)", s.spec, s.loc)

	for {
		now := s.now().In(s.loc)
		next := s.schedule.Next(now)
		wait := next.Sub(now)
		slog.Info("next alert scan", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second).String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Alert scanner stopped")
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Error("alert scan failed", "error", err)
			}
		}
	}
}

// RunOnce scans all active fichas for the current month.
func (s *AlertScanner) RunOnce(ctx context.Context) (ScanSummary, error) {
	started := time.Now()
	month := models.MonthOf(s.now().In(s.loc))

	results, err := s.reports.ScanActive(ctx, month)
	if err != nil {
		return ScanSummary{Month: month}, err
	}

	summary := ScanSummary{Month: month, Fichas: len(results)}
	snapshot := make([]metrics.FichaRisk, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			slog.Warn("ficha skipped in alert scan", "ficha", res.Ficha.Numero, "mes", month.String(), "error", res.Err)
			continue
		}
		summary.AtRisk += len(res.Report.Alertas)
		snapshot = append(snapshot, metrics.Summarize(res.Report))
	}

	took := time.Since(started)
	metrics.RecordScan(snapshot, summary.Failed, took)
	slog.Info("alert scan complete",
		"mes", month.String(),
		"fichas", summary.Fichas,
		"failed", summary.Failed,
		"at_risk", summary.AtRisk,
		"took", took.Round(time.Millisecond).String(),
	)

	return summary, nil
}
