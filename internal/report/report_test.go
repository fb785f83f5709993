package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"asistencia/internal/alerts"
	"asistencia/internal/models"
	"asistencia/internal/testutil"
)

var may2024 = models.Month{Year: 2024, Month: time.May}

func newTestService(store Store) *Service {
	return NewService(store, Options{
		Thresholds:         models.DefaultThresholds(),
		LookbackDays:       31,
		RecentSessionLimit: 3,
		ScanConcurrency:    2,
	})
}

func TestBuildReport(t *testing.T) {
	store := testutil.NewMemoryStore()
	ficha := store.AddFicha("2675432")

	ana := store.AddAprendiz(ficha, "1001", "Ana", "Pérez")
	beto := store.AddAprendiz(ficha, "1002", "Beto", "Ríos")
	caro := store.AddAprendiz(ficha, "1003", "Carolina", "Suárez")

	store.AddPattern(ficha, ana, may2024.Start(), "AAAPP")       // reset, 3 < 5
	store.AddPattern(ficha, beto, may2024.Start(), "PPAAA")      // consecutive
	store.AddPattern(ficha, caro, may2024.Start(), "APAPAPAPAP") // monthly

	svc := newTestService(store)
	report, err := svc.BuildReport(context.Background(), "2675432", may2024)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}

	if report.NumeroFicha != "2675432" {
		t.Errorf("NumeroFicha = %q", report.NumeroFicha)
	}
	if report.Mes != may2024 {
		t.Errorf("Mes = %v, want %v", report.Mes, may2024)
	}
	if len(report.Alertas) != 2 {
		t.Fatalf("len(Alertas) = %d, want 2", len(report.Alertas))
	}

	byDoc := map[string]models.AlertEntry{}
	for _, a := range report.Alertas {
		byDoc[a.Documento] = a
	}

	b, ok := byDoc["1002"]
	if !ok {
		t.Fatal("missing alert for Beto")
	}
	if b.Criterion != models.CriterionConsecutive || b.Nombre != "Beto Ríos" {
		t.Errorf("Beto alert = %+v", b)
	}
	if len(b.SesionesRecientes) != 3 {
		t.Errorf("len(SesionesRecientes) = %d, want 3 (limit)", len(b.SesionesRecientes))
	}
	last := b.SesionesRecientes[len(b.SesionesRecientes)-1]
	if last.Fecha.String() != "2024-05-05" || last.Presente {
		t.Errorf("last recent session = %+v, want absent on 2024-05-05", last)
	}

	c, ok := byDoc["1003"]
	if !ok {
		t.Fatal("missing alert for Carolina")
	}
	if c.Criterion != models.CriterionMonthly || c.MonthlyUnjustifiedCount != 5 {
		t.Errorf("Carolina alert = %+v", c)
	}
	if _, ok := byDoc["1001"]; ok {
		t.Error("Ana should not be alerted")
	}
}

func TestBuildReport_LookbackAndFutureRecords(t *testing.T) {
	store := testutil.NewMemoryStore()
	ficha := store.AddFicha("100")
	a := store.AddAprendiz(ficha, "1", "Dana", "Vélez")

	// Two absences at the end of April and one on May 1st form a streak.
	store.AddPattern(ficha, a, may2024.Start().AddDate(0, 0, -2), "AAA")
	// Attendance in June must not reset May's report.
	store.AddPattern(ficha, a, may2024.End().AddDate(0, 0, 1), "P")

	report, err := newTestService(store).BuildReport(context.Background(), "100", may2024)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if len(report.Alertas) != 1 {
		t.Fatalf("len(Alertas) = %d, want 1", len(report.Alertas))
	}
	got := report.Alertas[0]
	if got.Criterion != models.CriterionConsecutive || got.ConsecutiveUnjustifiedCount != 3 || got.MonthlyUnjustifiedCount != 1 {
		t.Errorf("alert = %+v", got.RiskAlert)
	}
}

func TestBuildReport_EmptyFicha(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.AddFicha("200")

	report, err := newTestService(store).BuildReport(context.Background(), "200", may2024)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if report.Alertas == nil || len(report.Alertas) != 0 {
		t.Errorf("Alertas = %#v, want empty list", report.Alertas)
	}
}

func TestBuildReport_Errors(t *testing.T) {
	t.Run("unknown ficha", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		_, err := newTestService(store).BuildReport(context.Background(), "nope", may2024)
		if !errors.Is(err, ErrFichaNotFound) {
			t.Errorf("BuildReport() error = %v, want ErrFichaNotFound", err)
		}
	})

	t.Run("malformed record fails the whole report", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		ficha := store.AddFicha("300")
		a := store.AddAprendiz(ficha, "1", "Eva", "Mora")
		store.AddPattern(ficha, a, may2024.Start(), "PPAAA")
		store.AddRecord(ficha, models.AttendanceRecord{StudentID: a.ID})

		report, err := newTestService(store).BuildReport(context.Background(), "300", may2024)
		if !errors.Is(err, alerts.ErrMalformedRecord) {
			t.Fatalf("BuildReport() error = %v, want ErrMalformedRecord", err)
		}
		if report != nil {
			t.Errorf("BuildReport() returned partial report %+v", report)
		}
	})

	t.Run("invalid month", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddFicha("400")
		_, err := newTestService(store).BuildReport(context.Background(), "400", models.Month{})
		if !alerts.IsValidationError(err) {
			t.Errorf("BuildReport() error = %v, want a validation error", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddFicha("500")
		store.Err = errors.New("connection refused")
		_, err := newTestService(store).BuildReport(context.Background(), "500", may2024)
		if err == nil || errors.Is(err, ErrFichaNotFound) || alerts.IsValidationError(err) {
			t.Errorf("BuildReport() error = %v, want an internal error", err)
		}
	})
}

func TestScanActive(t *testing.T) {
	store := testutil.NewMemoryStore()
	for _, numero := range []string{"1", "2", "3", "4", "5"} {
		f := store.AddFicha(numero)
		a := store.AddAprendiz(f, numero+"01", "Aprendiz", numero)
		store.AddPattern(f, a, may2024.Start(), "PPAAA")
	}
	broken := store.AddFicha("6")
	store.AddRecord(broken, models.AttendanceRecord{StudentID: uuid.New()})

	results, err := newTestService(store).ScanActive(context.Background(), may2024)
	if err != nil {
		t.Fatalf("ScanActive() error = %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}

	for _, r := range results {
		if r.Ficha.Numero == "6" {
			if !errors.Is(r.Err, alerts.ErrMalformedRecord) {
				t.Errorf("ficha 6 error = %v, want ErrMalformedRecord", r.Err)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("ficha %s error = %v", r.Ficha.Numero, r.Err)
			continue
		}
		if len(r.Report.Alertas) != 1 {
			t.Errorf("ficha %s alerts = %d, want 1", r.Ficha.Numero, len(r.Report.Alertas))
		}
	}
}

func TestScanActive_Cancelled(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.AddFicha("1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestService(store).ScanActive(ctx, may2024); !errors.Is(err, context.Canceled) {
		t.Errorf("ScanActive() error = %v, want context.Canceled", err)
	}
}

func TestRecordSession(t *testing.T) {
	store := testutil.NewMemoryStore()
	ficha := store.AddFicha("900")
	a := store.AddAprendiz(ficha, "1", "Fer", "Gil")

	in := models.SessionInput{
		Fecha:       models.NewDate(time.Date(2024, time.May, 2, 15, 30, 0, 0, time.UTC)),
		Tema:        "Redes",
		Asistencias: []models.AttendanceMark{{AprendizID: a.ID, Presente: false}},
	}

	resp, err := newTestService(store).RecordSession(context.Background(), "900", in)
	if err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}
	if resp.Registros != 1 || resp.Fecha.String() != "2024-05-02" || resp.NumeroFicha != "900" {
		t.Errorf("RecordSession() = %+v", resp)
	}
	if len(store.Sessions()) != 1 {
		t.Errorf("store has %d sessions, want 1", len(store.Sessions()))
	}

	if _, err := newTestService(store).RecordSession(context.Background(), "missing", in); !errors.Is(err, ErrFichaNotFound) {
		t.Errorf("RecordSession() error = %v, want ErrFichaNotFound", err)
	}
}

func TestRecentSessions(t *testing.T) {
	student := uuid.New()
	day := may2024.Start()
	records := []models.AttendanceRecord{
		{StudentID: student, SessionDate: day.AddDate(0, 0, 2)},
		{StudentID: student, SessionDate: day, Present: true},
		{StudentID: student, SessionDate: day.AddDate(0, 0, 1), Justified: true},
	}

	got := recentSessions(records, 2)[student]
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Fecha.String() != "2024-05-02" || !got[0].Justificada {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Fecha.String() != "2024-05-03" {
		t.Errorf("second = %+v", got[1])
	}

	if len(recentSessions(records, 0)) != 0 {
		t.Error("limit 0 should return no detail")
	}
}
