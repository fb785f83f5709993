package report

import (
	"context"

	"asistencia/internal/models"
)

// RecordSession stores a session of the ficha with its attendance marks.
func (s *Service) RecordSession(ctx context.Context, numeroFicha string, in models.SessionInput) (*models.SessionRecordedResponse, error) {
	ficha, err := s.lookupFicha(ctx, numeroFicha)
	if err != nil {
		return nil, err
	}

	session, err := s.store.CreateSession(ctx, ficha.ID, in.Fecha.Time(), in.Tema, in.Asistencias)
	if err != nil {
		return nil, err
	}

	return &models.SessionRecordedResponse{
		SesionID:    session.ID,
		NumeroFicha: ficha.Numero,
		Fecha:       models.NewDate(session.Fecha),
		Registros:   len(in.Asistencias),
	}, nil
}
