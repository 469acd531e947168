package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/common/errorz"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"

	"github.com/openportal/subscribe-notifier/pkg/logger/types"
)

type SubscriptionStorage interface {
	Create(ctx context.Context, subscription *entity.Subscription) (*entity.Subscription, error)
	Get(ctx context.Context, id string) (*entity.Subscription, error)
	GetByTarget(ctx context.Context, email string, objectType entity.ObjectType, objectID string) (*entity.Subscription, error)
	Update(ctx context.Context, subscription *entity.Subscription) (*entity.Subscription, error)
	Delete(ctx context.Context, id string) error
	ListVerified(ctx context.Context, frequency entity.Frequency) ([]entity.Subscription, error)
}

type verificationCodeStorage interface {
	Get(code string) (string, error)
	Set(code string, subscriptionID string, expiration time.Duration) error
	Clear(code string) error
}

// SubscriptionService manages the subscription lifecycle: signup with
// email verification, frequency changes and unsubscribing. Notification
// runs only ever see verified rows.
type SubscriptionService struct {
	storage   SubscriptionStorage
	codes     verificationCodeStorage
	mailer    Mailer
	siteTitle string
	codeTTL   time.Duration

	logger *types.Logger
}

func NewSubscriptionService(
	storage SubscriptionStorage,
	codes verificationCodeStorage,
	mailer Mailer,
	siteTitle string,
	codeTTL time.Duration,
	logger *types.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		storage:   storage,
		codes:     codes,
		mailer:    mailer,
		siteTitle: siteTitle,
		codeTTL:   codeTTL,
		logger:    logger,
	}
}

// Signup creates a subscription, or updates the frequency of an existing
// one for the same (email, object) pair instead of duplicating it. An
// unverified subscription gets a fresh verification code by email; a new
// code invalidates nothing because codes live in their own store with a
// TTL.
func (s *SubscriptionService) Signup(
	ctx context.Context,
	email string,
	objectType entity.ObjectType,
	objectID string,
	frequency entity.Frequency,
) (*entity.Subscription, error) {
	subscription, err := s.storage.GetByTarget(ctx, email, objectType, objectID)
	switch {
	case err == nil:
		subscription.Frequency = frequency
		if subscription, err = s.storage.Update(ctx, subscription); err != nil {
			return nil, err
		}
	case errors.Is(err, errorz.ErrSubscriptionNotFound):
		subscription, err = s.storage.Create(ctx, &entity.Subscription{
			Email:      email,
			ObjectType: objectType,
			ObjectID:   objectID,
			Frequency:  frequency,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if !subscription.Verified {
		if err = s.sendVerification(subscription); err != nil {
			return nil, err
		}
	}
	return subscription, nil
}

// Verify marks the subscription behind a code as verified and discards
// the code.
func (s *SubscriptionService) Verify(ctx context.Context, code string) (*entity.Subscription, error) {
	subscriptionID, err := s.codes.Get(code)
	if err != nil {
		return nil, err
	}

	subscription, err := s.storage.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	subscription.Verified = true
	if subscription, err = s.storage.Update(ctx, subscription); err != nil {
		return nil, err
	}

	if err = s.codes.Clear(code); err != nil {
		s.logger.Errorf("failed to clear verification code for %s: %v", subscription.Email, err)
	}
	return subscription, nil
}

func (s *SubscriptionService) UpdateFrequency(ctx context.Context, id string, frequency entity.Frequency) (*entity.Subscription, error) {
	subscription, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subscription.Frequency = frequency
	return s.storage.Update(ctx, subscription)
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, email string, objectType entity.ObjectType, objectID string) error {
	subscription, err := s.storage.GetByTarget(ctx, email, objectType, objectID)
	if err != nil {
		return err
	}
	return s.storage.Delete(ctx, subscription.ID)
}

func (s *SubscriptionService) ListVerified(ctx context.Context, frequency entity.Frequency) ([]entity.Subscription, error) {
	return s.storage.ListVerified(ctx, frequency)
}

func (s *SubscriptionService) sendVerification(subscription *entity.Subscription) error {
	code, err := generateRandomCode(32)
	if err != nil {
		return err
	}
	if err = s.codes.Set(code, subscription.ID, s.codeTTL); err != nil {
		return err
	}

	subject := fmt.Sprintf("Confirm %s subscription", s.siteTitle)
	plainBody := fmt.Sprintf(
		"%s subscription requested:\n%s: %s\n\nTo confirm this email subscription, use this code:\n%s\n",
		s.siteTitle, subscription.ObjectType, subscription.ObjectID, code)
	htmlBody := fmt.Sprintf(
		"<p>%s subscription requested<br/>%s: %s</p><p>To confirm this email subscription, use this code:<br/><strong>%s</strong></p>",
		s.siteTitle, subscription.ObjectType, subscription.ObjectID, code)

	return s.mailer.Deliver(subscription.Email, subject, plainBody, htmlBody)
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
