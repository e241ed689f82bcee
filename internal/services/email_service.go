package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"superteam-earn/internal/metrics"
	"superteam-earn/internal/models"
	"superteam-earn/internal/utils"
)

// Email categories users can opt out of
const (
	EmailCategorySubmissionSponsor = "submissionSponsor"
	EmailCategoryCommentSponsor    = "commentSponsor"
	EmailCategoryReplyOrTag        = "replyOrTagComment"
)

// EmailMessage is a single outgoing email. An empty Category marks a
// transactional email that ignores notification preferences.
type EmailMessage struct {
	To       string
	Subject  string
	HTML     string
	Category string
	UserID   *uuid.UUID
}

// EmailSender delivers a rendered email and returns the provider message id
type EmailSender interface {
	Send(ctx context.Context, from, replyTo string, msg EmailMessage) (string, error)
}

// ResendSender delivers email through the Resend API
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (r *ResendSender) Send(ctx context.Context, from, replyTo string, msg EmailMessage) (string, error) {
	sent, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: replyTo,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// LogSender only logs emails; used when no Resend key is configured
type LogSender struct{}

func (LogSender) Send(_ context.Context, from, _ string, msg EmailMessage) (string, error) {
	zap.L().Info("email not delivered, no provider configured",
		zap.String("from", from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return "", nil
}

// EmailService sends notification emails honouring unsubscribes and settings
type EmailService struct {
	db         *gorm.DB
	sender     EmailSender
	from       string
	replyTo    string
	batchSize  int
	batchDelay time.Duration
}

func NewEmailService(db *gorm.DB, sender EmailSender, from, replyTo string, batchSize int, batchDelay time.Duration) *EmailService {
	if sender == nil {
		sender = LogSender{}
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &EmailService{
		db:         db,
		sender:     sender,
		from:       from,
		replyTo:    replyTo,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Send delivers msg unless the address unsubscribed or the user opted out of
// its category. sent reports whether the email went out.
func (s *EmailService) Send(ctx context.Context, msg EmailMessage) (sent bool, err error) {
	address := strings.ToLower(strings.TrimSpace(msg.To))
	if address == "" {
		return false, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	msg.To = address

	allowed, err := s.allowed(ctx, msg)
	if err != nil {
		return false, err
	}
	if !allowed {
		metrics.RecordEmail("skipped")
		return false, nil
	}

	id, err := s.sender.Send(ctx, s.from, s.replyTo, msg)
	if err != nil {
		metrics.RecordEmail("failed")
		return false, fmt.Errorf("failed to send email: %w", err)
	}

	metrics.RecordEmail("sent")
	zap.L().Debug("email sent", zap.String("to", address), zap.String("id", id))
	return true, nil
}

// SendBulk delivers messages in rate limited batches. Individual failures are
// logged and skipped; the returned count is the number of emails sent.
func (s *EmailService) SendBulk(ctx context.Context, messages []EmailMessage) (int, error) {
	results, err := utils.RateLimitedAll(ctx, messages, s.batchSize, s.batchDelay,
		func(ctx context.Context, msg EmailMessage) (bool, error) {
			sent, err := s.Send(ctx, msg)
			if err != nil {
				zap.L().Warn("bulk email failed", zap.String("to", msg.To), zap.Error(err))
				return false, nil
			}
			return sent, nil
		})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sent := range results {
		if sent {
			count++
		}
	}
	return count, nil
}

// Unsubscribe blocks every future email to address and drops the matching
// user's notification settings in one transaction.
func (s *EmailService) Unsubscribe(ctx context.Context, address string) error {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.UnsubscribedEmail{Email: address}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record unsubscribe: %w", err)
		}

		users := tx.Model(&models.User{}).Select("id").Where("LOWER(email) = ?", address)
		if err := tx.Where("user_id IN (?)", users).Delete(&models.EmailSettings{}).Error; err != nil {
			return fmt.Errorf("failed to clear email settings: %w", err)
		}
		return nil
	})
}

// IsUnsubscribed reports whether address opted out of every email
func (s *EmailService) IsUnsubscribed(ctx context.Context, address string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UnsubscribedEmail{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(address))).
		Count(&count).Error
	return count > 0, err
}

func (s *EmailService) allowed(ctx context.Context, msg EmailMessage) (bool, error) {
	unsubscribed, err := s.IsUnsubscribed(ctx, msg.To)
	if err != nil || unsubscribed {
		return false, err
	}
	if msg.Category == "" || msg.UserID == nil {
		return true, nil
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.EmailSettings{}).
		Where("user_id = ? AND category = ?", *msg.UserID, msg.Category).
		Count(&count).Error
	return count > 0, err
}
