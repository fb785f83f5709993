package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a single class meeting of a ficha on a calendar date.
type Session struct {
	ID        uuid.UUID `json:"id"`
	FichaID   uuid.UUID `json:"ficha_id"`
	Fecha     time.Time `json:"fecha"`
	Tema      string    `json:"tema"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is one student's attendance at one session.
// Records are immutable once stored.
type AttendanceRecord struct {
	StudentID   uuid.UUID
	SessionID   uuid.UUID
	SessionDate time.Time
	Present     bool
	Justified   bool
}

// IsUnjustifiedAbsence reports whether the record counts against the student.
func (r AttendanceRecord) IsUnjustifiedAbsence() bool {
	return !r.Present && !r.Justified
}

// AttendanceMark is the attendance of one aprendiz when recording a session.
type AttendanceMark struct {
	AprendizID  uuid.UUID `json:"aprendizId" validate:"required"`
	Presente    bool      `json:"presente"`
	Justificada bool      `json:"justificada"`
	Observacion string    `json:"observacion" validate:"max=500"`
}

// SessionInput is the payload for recording a session with its attendance.
type SessionInput struct {
	Fecha       Date             `json:"fecha" validate:"required"`
	Tema        string           `json:"tema" validate:"max=200"`
	Asistencias []AttendanceMark `json:"asistencias" validate:"required,min=1,dive"`
}
