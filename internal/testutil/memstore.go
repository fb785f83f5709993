package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"asistencia/internal/db"
	"asistencia/internal/models"
)

// MemoryStore is an in-memory stand-in for the database used by unit tests.
// It returns the same sentinel errors as package db.
type MemoryStore struct {
	mu         sync.Mutex
	fichas     map[string]*models.Ficha
	aprendices map[uuid.UUID]models.Aprendiz
	sessions   []models.Session
	records    map[uuid.UUID][]models.AttendanceRecord // by ficha id

	// Err, when set, is returned by every read.
	Err error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fichas:     make(map[string]*models.Ficha),
		aprendices: make(map[uuid.UUID]models.Aprendiz),
		records:    make(map[uuid.UUID][]models.AttendanceRecord),
	}
}

// AddFicha registers an active ficha and returns it.
func (s *MemoryStore) AddFicha(numero string) *models.Ficha {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &models.Ficha{ID: uuid.New(), Numero: numero, Activa: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.fichas[numero] = f
	return f
}

// AddAprendiz enrolls an aprendiz in the ficha.
func (s *MemoryStore) AddAprendiz(ficha *models.Ficha, documento, nombres, apellidos string) models.Aprendiz {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := models.Aprendiz{
		ID:        uuid.New(),
		FichaID:   ficha.ID,
		Documento: documento,
		Nombres:   nombres,
		Apellidos: apellidos,
		Activo:    true,
	}
	s.aprendices[a.ID] = a
	return a
}

// AddPattern stores one record per character of pattern for the aprendiz,
// starting at from and advancing one day per character: 'P' present,
// 'A' unjustified absence, 'J' justified absence, '.' no session.
func (s *MemoryStore) AddPattern(ficha *models.Ficha, aprendiz models.Aprendiz, from time.Time, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ch := range pattern {
		if ch == '.' {
			continue
		}
		s.records[ficha.ID] = append(s.records[ficha.ID], models.AttendanceRecord{
			StudentID:   aprendiz.ID,
			SessionID:   uuid.New(),
			SessionDate: from.AddDate(0, 0, i),
			Present:     ch == 'P',
			Justified:   ch == 'J',
		})
	}
}

// AddRecord stores a raw record, malformed or not.
func (s *MemoryStore) AddRecord(ficha *models.Ficha, r models.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[ficha.ID] = append(s.records[ficha.ID], r)
}

// Sessions returns the sessions created through CreateSession.
func (s *MemoryStore) Sessions() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Session(nil), s.sessions...)
}

func (s *MemoryStore) GetFichaByNumero(ctx context.Context, numero string) (*models.Ficha, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	f, ok := s.fichas[numero]
	if !ok {
		return nil, db.ErrFichaNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) ListActiveFichas(ctx context.Context) ([]models.Ficha, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Ficha
	for _, f := range s.fichas {
		if f.Activa {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out, nil
}

func (s *MemoryStore) ListAprendicesByFicha(ctx context.Context, fichaID uuid.UUID) ([]models.Aprendiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Aprendiz
	for _, a := range s.aprendices {
		if a.FichaID == fichaID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListAttendanceRecords(ctx context.Context, fichaID uuid.UUID, from, to time.Time) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.AttendanceRecord
	for _, r := range s.records[fichaID] {
		// Zero dates are kept so callers can exercise validation.
		if r.SessionDate.IsZero() || (!r.SessionDate.Before(from) && !r.SessionDate.After(to)) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SessionDate.Before(out[j].SessionDate) })
	return out, nil
}

func (s *MemoryStore) CreateSession(ctx context.Context, fichaID uuid.UUID, fecha time.Time, tema string, marks []models.AttendanceMark) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := models.NewDate(fecha).Time()
	for _, existing := range s.sessions {
		if existing.FichaID == fichaID && existing.Fecha.Equal(day) {
			return nil, db.ErrDuplicateSession
		}
	}

	seen := make(map[uuid.UUID]bool, len(marks))
	for _, m := range marks {
		if seen[m.AprendizID] {
			return nil, db.ErrDuplicateMark
		}
		seen[m.AprendizID] = true
		if a, ok := s.aprendices[m.AprendizID]; !ok || a.FichaID != fichaID {
			return nil, db.ErrAprendizNotInFicha
		}
	}

	session := models.Session{ID: uuid.New(), FichaID: fichaID, Fecha: day, Tema: tema, CreatedAt: time.Now()}
	s.sessions = append(s.sessions, session)
	for _, m := range marks {
		s.records[fichaID] = append(s.records[fichaID], models.AttendanceRecord{
			StudentID:   m.AprendizID,
			SessionID:   session.ID,
			SessionDate: day,
			Present:     m.Presente,
			Justified:   m.Justificada,
		})
	}
	return &session, nil
}
