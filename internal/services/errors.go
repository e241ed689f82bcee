package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("invalid state")
	ErrSponsorRequired = errors.New("no current sponsor selected")

	ErrUsernameTaken = errors.New("username already taken")
	ErrSponsorExists = errors.New("sponsor name already taken")
	ErrAlreadyMember = errors.New("user is already a member of this sponsor")

	ErrListingPublished  = errors.New("published listings cannot be deleted")
	ErrListingNotOpen    = errors.New("listing is not open")
	ErrDeadlinePassed    = errors.New("listing deadline has passed")
	ErrWinnersAnnounced  = errors.New("winners already announced")
	ErrIncompleteWinners = errors.New("every reward position needs a winner")
	ErrRegionIneligible  = errors.New("listing is not open to your region")
	ErrUnsupportedToken  = errors.New("unsupported token")
	ErrPriceUnavailable  = errors.New("token price unavailable")

	ErrDuplicateSubmission = errors.New("already submitted to this listing")
	ErrInsufficientCredits = errors.New("no submission credits left this month")
	ErrInvalidPosition     = errors.New("position is not a reward position of this listing")
	ErrPositionTaken       = errors.New("position already assigned to another submission")
	ErrNotWinner           = errors.New("submission is not an announced winner")
	ErrAlreadyPaid         = errors.New("submission already paid")
	ErrKYCRequired         = errors.New("winner KYC missing or expired")
	ErrPaymentReused       = errors.New("transaction already recorded for another submission")

	ErrAlreadyApplied = errors.New("already applied to this grant")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
