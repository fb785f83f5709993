// Package alerts classifies aprendices at risk of dropout from their
// attendance history.
package alerts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"asistencia/internal/models"
)

// Validation errors. Any of them aborts the whole computation so a report is
// never built from a partial record set.
var (
	ErrInvalidThresholds = errors.New("invalid alert thresholds")
	ErrInvalidMonth      = models.ErrInvalidMonth
	ErrMalformedRecord   = errors.New("malformed attendance record")
	ErrDuplicateRecord   = errors.New("duplicate attendance record")
)

// studentTally accumulates one student's counters.
type studentTally struct {
	records []models.AttendanceRecord
}

// Compute returns one RiskAlert per student whose trailing run of unjustified
// absences reaches the consecutive limit or whose unjustified absences in
// month reach the monthly limit. Alerts follow the order in which students
// first appear in records. The input slice is not modified.
func Compute(records []models.AttendanceRecord, month models.Month, th models.Thresholds) ([]models.RiskAlert, error) {
	if err := ValidateThresholds(th); err != nil {
		return nil, err
	}
	if !month.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMonth, month)
	}

	order, byStudent, err := group(records)
	if err != nil {
		return nil, err
	}

	alerts := make([]models.RiskAlert, 0)
	for _, id := range order {
		tally := byStudent[id]
		streak, monthly := tally.count(month)
		if alert, ok := classify(id, streak, monthly, th); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

// ValidateThresholds rejects limits below one.
func ValidateThresholds(th models.Thresholds) error {
	if th.ConsecutiveUnjustifiedLimit < 1 {
		return fmt.Errorf("%w: consecutive limit must be at least 1, got %d", ErrInvalidThresholds, th.ConsecutiveUnjustifiedLimit)
	}
	if th.MonthlyUnjustifiedLimit < 1 {
		return fmt.Errorf("%w: monthly limit must be at least 1, got %d", ErrInvalidThresholds, th.MonthlyUnjustifiedLimit)
	}
	return nil
}

// IsValidationError reports whether err was caused by bad input rather than
// by a failure of the caller's collaborators.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidThresholds) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrMalformedRecord) ||
		errors.Is(err, ErrDuplicateRecord)
}

// group buckets records per student, keeping first-appearance order, and
// sorts each bucket by date.
func group(records []models.AttendanceRecord) ([]uuid.UUID, map[uuid.UUID]*studentTally, error) {
	var order []uuid.UUID
	byStudent := make(map[uuid.UUID]*studentTally)

	for i, r := range records {
		if r.StudentID == uuid.Nil {
			return nil, nil, fmt.Errorf("%w: record %d has no student id", ErrMalformedRecord, i)
		}
		if r.SessionDate.IsZero() {
			return nil, nil, fmt.Errorf("%w: record %d for student %s has no session date", ErrMalformedRecord, i, r.StudentID)
		}

		tally, ok := byStudent[r.StudentID]
		if !ok {
			tally = &studentTally{}
			byStudent[r.StudentID] = tally
			order = append(order, r.StudentID)
		}
		tally.records = append(tally.records, r)
	}

	for _, id := range order {
		recs := byStudent[id].records
		sort.SliceStable(recs, func(a, b int) bool {
			return dayKey(recs[a]) < dayKey(recs[b])
		})
		for i := 1; i < len(recs); i++ {
			if dayKey(recs[i]) == dayKey(recs[i-1]) {
				return nil, nil, fmt.Errorf("%w: student %s has two records on %s",
					ErrDuplicateRecord, id, recs[i].SessionDate.Format(models.DateLayout))
			}
		}
	}

	return order, byStudent, nil
}

// count walks the sorted records once. The streak is the run of unjustified
// absences ending at the most recent record; justified absences neither
// extend nor break it.
func (t *studentTally) count(month models.Month) (streak, monthly int) {
	for _, r := range t.records {
		switch {
		case r.Present:
			streak = 0
		case r.IsUnjustifiedAbsence():
			streak++
			if month.Contains(r.SessionDate) {
				monthly++
			}
		}
	}
	return streak, monthly
}

func classify(id uuid.UUID, streak, monthly int, th models.Thresholds) (models.RiskAlert, bool) {
	consecutive := streak >= th.ConsecutiveUnjustifiedLimit
	inMonth := monthly >= th.MonthlyUnjustifiedLimit

	var criterion models.Criterion
	switch {
	case consecutive && inMonth:
		criterion = models.CriterionBoth
	case consecutive:
		criterion = models.CriterionConsecutive
	case inMonth:
		criterion = models.CriterionMonthly
	default:
		return models.RiskAlert{}, false
	}

	return models.RiskAlert{
		StudentID:                   id,
		ConsecutiveUnjustifiedCount: streak,
		MonthlyUnjustifiedCount:     monthly,
		Criterion:                   criterion,
	}, true
}

// dayKey orders records by calendar date regardless of time-of-day or
// location.
func dayKey(r models.AttendanceRecord) int {
	y, m, d := r.SessionDate.Date()
	return y*10000 + int(m)*100 + d
}
