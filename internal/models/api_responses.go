package models

import (
	"github.com/google/uuid"
)

// SessionDetail is one recent attendance entry shown next to an alert.
type SessionDetail struct {
	SesionID    uuid.UUID `json:"sesionId"`
	Fecha       Date      `json:"fecha"`
	Presente    bool      `json:"presente"`
	Justificada bool      `json:"justificada"`
}

// AlertEntry is a RiskAlert enriched with the student's display fields.
type AlertEntry struct {
	RiskAlert
	Nombre            string          `json:"nombre"`
	Documento         string          `json:"documento"`
	SesionesRecientes []SessionDetail `json:"sesionesRecientes,omitempty"`
}

// AlertReport is the response of the alert report endpoint.
type AlertReport struct {
	NumeroFicha string       `json:"numeroFicha"`
	Mes         Month        `json:"mes"`
	Umbrales    Thresholds   `json:"umbrales"`
	Alertas     []AlertEntry `json:"alertas"`
}

// SessionRecordedResponse is returned after a session is stored.
type SessionRecordedResponse struct {
	SesionID    uuid.UUID `json:"sesionId"`
	NumeroFicha string    `json:"numeroFicha"`
	Fecha       Date      `json:"fecha"`
	Registros   int       `json:"registros"`
}

// ExportResponse is returned after a report is written to a spreadsheet.
type ExportResponse struct {
	NumeroFicha string `json:"numeroFicha"`
	Mes         Month  `json:"mes"`
	Hoja        string `json:"hoja"`
	Filas       int    `json:"filas"`
}
