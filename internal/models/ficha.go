package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ficha is a cohort of aprendices following the same training program.
type Ficha struct {
	ID        uuid.UUID `json:"id"`
	Numero    string    `json:"numero"`
	Programa  string    `json:"programa"`
	Activa    bool      `json:"activa"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Aprendiz is a student enrolled in a ficha.
type Aprendiz struct {
	ID        uuid.UUID `json:"id"`
	FichaID   uuid.UUID `json:"ficha_id"`
	Documento string    `json:"documento"`
	Nombres   string    `json:"nombres"`
	Apellidos string    `json:"apellidos"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns "Nombres Apellidos" with surrounding whitespace removed.
func (a *Aprendiz) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.Nombres) + " " + strings.TrimSpace(a.Apellidos))
}
