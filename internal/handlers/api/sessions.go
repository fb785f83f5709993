package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"asistencia/internal/db"
	"asistencia/internal/models"
	"asistencia/internal/report"
	"asistencia/internal/validation"
)

// SessionRecorder stores attendance sessions.
type SessionRecorder interface {
	RecordSession(ctx context.Context, numeroFicha string, in models.SessionInput) (*models.SessionRecordedResponse, error)
}

// SessionHandler records attendance sessions via JSON API.
type SessionHandler struct {
	sessions SessionRecorder
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions SessionRecorder) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create stores a session with one attendance mark per aprendiz.
func (h *SessionHandler) Create(c fiber.Ctx) error {
	numero, ok := fichaParam(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid ficha number")
	}

	var body models.SessionInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := validation.ValidateStruct(body); err != nil {
		var fields validation.FieldErrors
		if errors.As(err, &fields) {
			return jsonFieldErrors(c, fields)
		}
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.sessions.RecordSession(c.Context(), numero, body)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrFichaNotFound):
			return jsonError(c, fiber.StatusNotFound, "ficha not found")
		case errors.Is(err, db.ErrDuplicateSession):
			return jsonError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, db.ErrAprendizNotInFicha), errors.Is(err, db.ErrDuplicateMark):
			return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		slog.Error("failed to record session", "ficha", numero, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to record session")
	}

	return jsonCreated(c, resp)
}
