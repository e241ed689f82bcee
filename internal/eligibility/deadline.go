package eligibility

import "time"

// IsDeadlineOver reports whether a deadline has passed. Listings without a
// deadline never expire.
func IsDeadlineOver(deadline *time.Time, now time.Time) bool {
	return deadline != nil && deadline.Before(now)
}
