package db

import "errors"

// Domain-level database error sentinels.
var (
	// Ficha errors
	ErrFichaNotFound  = errors.New("ficha not found")
	ErrDuplicateFicha = errors.New("ficha number already exists")

	// Aprendiz errors
	ErrAprendizNotInFicha = errors.New("aprendiz does not belong to this ficha")
	ErrDuplicateAprendiz  = errors.New("aprendiz document already registered in this ficha")

	// Session errors
	ErrDuplicateSession = errors.New("a session already exists for this ficha on that date")
	ErrDuplicateMark    = errors.New("aprendiz listed more than once in the session")
)
