package models

import (
	"github.com/google/uuid"
)

// Criterion names which risk condition a student met.
type Criterion string

// Criterion constants
const (
	CriterionConsecutive Criterion = "CONSECUTIVE"
	CriterionMonthly     Criterion = "MONTHLY"
	CriterionBoth        Criterion = "BOTH"
)

// Default alert thresholds.
const (
	DefaultConsecutiveLimit = 3
	DefaultMonthlyLimit     = 5
)

// Thresholds configures when a student is considered at risk.
type Thresholds struct {
	ConsecutiveUnjustifiedLimit int `json:"consecutiveUnjustifiedLimit" yaml:"consecutive_unjustified_limit" validate:"min=1"`
	MonthlyUnjustifiedLimit     int `json:"monthlyUnjustifiedLimit" yaml:"monthly_unjustified_limit" validate:"min=1"`
}

// DefaultThresholds returns 3 consecutive and 5 monthly unjustified absences.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConsecutiveUnjustifiedLimit: DefaultConsecutiveLimit,
		MonthlyUnjustifiedLimit:     DefaultMonthlyLimit,
	}
}

// RiskAlert is the classification of one student. It is derived on every
// request and never stored.
type RiskAlert struct {
	StudentID                   uuid.UUID `json:"studentId"`
	ConsecutiveUnjustifiedCount int       `json:"consecutiveUnjustifiedCount"`
	MonthlyUnjustifiedCount     int       `json:"monthlyUnjustifiedCount"`
	Criterion                   Criterion `json:"criterion"`
}

// IncludesConsecutive reports whether the consecutive condition was met.
func (a RiskAlert) IncludesConsecutive() bool {
	return a.Criterion == CriterionConsecutive || a.Criterion == CriterionBoth
}

// IncludesMonthly reports whether the monthly condition was met.
func (a RiskAlert) IncludesMonthly() bool {
	return a.Criterion == CriterionMonthly || a.Criterion == CriterionBoth
}
