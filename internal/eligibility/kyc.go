package eligibility

import (
	"time"

	"superteam-earn/internal/models"
)

// KYCValidityMonths is how long a verification stays valid when the provider did
// not send an explicit expiry.
const KYCValidityMonths = 6

// KYCState is the subset of user fields the expiry rule reads.
type KYCState struct {
	KYCVerifiedAt *time.Time
	KYCExpiresAt  *time.Time
}

// KYCStateOf extracts the KYC timestamps of a user.
func KYCStateOf(u *models.User) KYCState {
	return KYCState{KYCVerifiedAt: u.KYCVerifiedAt, KYCExpiresAt: u.KYCExpiresAt}
}

// IsKycExpired reports whether a verification can no longer be trusted. An
// explicit expiry wins; otherwise verifications older than six months are
// expired. A user that was never verified is treated as expired.
func IsKycExpired(k KYCState, now time.Time) bool {
	if k.KYCExpiresAt != nil {
		return now.After(*k.KYCExpiresAt)
	}
	if k.KYCVerifiedAt != nil {
		return k.KYCVerifiedAt.AddDate(0, KYCValidityMonths, 0).Before(now)
	}
	return true
}
