package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"superteam-earn/internal/models"
	"superteam-earn/internal/utils"
)

const referralCodeAttempts = 5

// DefaultEmailCategories are the notification categories a new user is opted into
var DefaultEmailCategories = []string{
	"commentOrLikeSubmission",
	"replyOrTagComment",
	"weeklyListingRoundup",
	"productAndNewsletter",
	"submissionSponsor",
	"commentSponsor",
	"deadlineSponsor",
}

// AuthService handles authentication business logic
type AuthService struct {
	db               *gorm.DB
	credits          *CreditService
	usernameAttempts int
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, credits *CreditService, usernameAttempts int) *AuthService {
	return &AuthService{db: db, credits: credits, usernameAttempts: usernameAttempts}
}

// ProcessWalletLogin finds or creates a user by wallet address. A new user
// gets a unique username, a referral code, default email settings and this
// month's credits; referralCode links the user to whoever shared it.
// created reports whether the account was just registered.
func (s *AuthService) ProcessWalletLogin(ctx context.Context, walletAddress, referralCode string) (user *models.User, created bool, err error) {
	var existing models.User
	err = s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&existing).Error
	if err == nil {
		zap.L().Debug("user logged in", zap.String("wallet", walletAddress), zap.Stringer("user_id", existing.ID))
		return &existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	username, err := utils.GenerateUniqueUsername(ctx, "", s.usernameExists, s.usernameAttempts)
	if err != nil {
		return nil, false, err
	}
	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, false, err
	}

	newUser := models.User{
		WalletAddress: walletAddress,
		Username:      username,
		ReferralCode:  code,
	}

	if referralCode != "" {
		var referrer models.User
		err := s.db.WithContext(ctx).
			Select("id").
			Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(referralCode))).
			First(&referrer).Error
		switch {
		case err == nil:
			newUser.ReferredByID = &referrer.ID
		case isNotFound(err):
			zap.L().Info("ignoring unknown referral code", zap.String("code", referralCode))
		default:
			return nil, false, err
		}
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		settings := make([]models.EmailSettings, len(DefaultEmailCategories))
		for i, category := range DefaultEmailCategories {
			settings[i] = models.EmailSettings{UserID: newUser.ID, Category: category}
		}
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to create email settings: %w", err)
		}

		return s.credits.GrantInitial(tx, newUser.ID, now)
	})
	if err != nil {
		return nil, false, err
	}

	zap.L().Info("new user created",
		zap.String("wallet", walletAddress),
		zap.Stringer("user_id", newUser.ID),
		zap.Bool("referred", newUser.ReferredByID != nil))
	return &newUser, true, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("CurrentSponsor").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) usernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (s *AuthService) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}
