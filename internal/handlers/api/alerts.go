package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"asistencia/internal/alerts"
	"asistencia/internal/metrics"
	"asistencia/internal/models"
	"asistencia/internal/report"
)

// ReportBuilder builds alert reports for a ficha and month.
type ReportBuilder interface {
	BuildReport(ctx context.Context, numeroFicha string, month models.Month) (*models.AlertReport, error)
}

// Exporter writes an alert report somewhere outside the service and returns
// the destination sheet name and the number of rows written.
type Exporter interface {
	ExportReport(ctx context.Context, r *models.AlertReport) (string, int, error)
}

// AlertHandler serves attendance risk reports via JSON API.
type AlertHandler struct {
	reports  ReportBuilder
	exporter Exporter
}

// NewAlertHandler creates a new alert handler. exporter may be nil, in which
// case the export endpoint answers 404.
func NewAlertHandler(reports ReportBuilder, exporter Exporter) *AlertHandler {
	return &AlertHandler{reports: reports, exporter: exporter}
}

// Report returns the students at risk of a ficha for the month in ?mes=.
func (h *AlertHandler) Report(c fiber.Ctx) error {
	r, ok, err := h.build(c)
	if !ok {
		return err
	}

	metrics.RecordReport(metrics.OutcomeOK)
	return jsonSuccess(c, r)
}

// Export writes the report of a ficha for the month in ?mes= to the
// configured spreadsheet.
func (h *AlertHandler) Export(c fiber.Ctx) error {
	if h.exporter == nil {
		return jsonError(c, fiber.StatusNotFound, "spreadsheet export is not enabled")
	}

	r, ok, err := h.build(c)
	if !ok {
		return err
	}

	sheet, rows, err := h.exporter.ExportReport(c.Context(), r)
	if err != nil {
		slog.Error("report export failed", "ficha", r.NumeroFicha, "mes", r.Mes.String(), "error", err)
		metrics.RecordReport(metrics.OutcomeExportFailed)
		return jsonError(c, fiber.StatusBadGateway, "failed to export report")
	}

	metrics.RecordReport(metrics.OutcomeExported)
	return jsonSuccess(c, models.ExportResponse{
		NumeroFicha: r.NumeroFicha,
		Mes:         r.Mes,
		Hoja:        sheet,
		Filas:       rows,
	})
}

// build parses the request and computes the report. When ok is false the
// error response has already been written and err must be returned as is.
func (h *AlertHandler) build(c fiber.Ctx) (r *models.AlertReport, ok bool, err error) {
	numero, valid := fichaParam(c)
	if !valid {
		metrics.RecordReport(metrics.OutcomeInvalid)
		return nil, false, jsonError(c, fiber.StatusBadRequest, "invalid ficha number")
	}

	month, perr := models.ParseMonth(c.Query("mes"))
	if perr != nil {
		metrics.RecordReport(metrics.OutcomeInvalid)
		return nil, false, jsonError(c, fiber.StatusBadRequest, "query parameter mes must be a month in YYYY-MM format")
	}

	r, berr := h.reports.BuildReport(c.Context(), numero, month)
	switch {
	case berr == nil:
		return r, true, nil
	case errors.Is(berr, report.ErrFichaNotFound):
		metrics.RecordReport(metrics.OutcomeNotFound)
		return nil, false, jsonError(c, fiber.StatusNotFound, "ficha not found")
	case alerts.IsValidationError(berr):
		slog.Warn("attendance data rejected", "ficha", numero, "mes", month.String(), "error", berr)
		metrics.RecordReport(metrics.OutcomeMalformed)
		return nil, false, jsonError(c, fiber.StatusUnprocessableEntity, berr.Error())
	default:
		slog.Error("failed to build alert report", "ficha", numero, "mes", month.String(), "error", berr)
		metrics.RecordReport(metrics.OutcomeError)
		return nil, false, jsonError(c, fiber.StatusInternalServerError, "failed to build alert report")
	}
}
