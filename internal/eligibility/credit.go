package eligibility

import (
	"time"

	"superteam-earn/internal/models"
)

// CreditAggregate sums a ledger into a single balance.
func CreditAggregate(entries []models.CreditLedger) int {
	balance := 0
	for _, e := range entries {
		balance += e.Change
	}
	return balance
}

// CanUserSubmit gates new submissions on a positive credit balance.
func CanUserSubmit(balance int) bool {
	return balance > 0
}

// CurrentEffectiveMonth returns the first instant of the UTC month containing t.
func CurrentEffectiveMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextEffectiveMonth returns the first instant of the UTC month after t.
func NextEffectiveMonth(t time.Time) time.Time {
	return CurrentEffectiveMonth(t).AddDate(0, 1, 0)
}
