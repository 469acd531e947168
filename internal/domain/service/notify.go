package service

import (
	"context"
	"sort"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/dto"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"

	"github.com/openportal/subscribe-notifier/pkg/logger/types"
)

type fanoutStorage interface {
	ObjectsSubscribedTo(ctx context.Context, frequency entity.Frequency) (map[string][]entity.Subscription, error)
}

type reportStateStorage interface {
	LastSent(ctx context.Context, frequency entity.Frequency) (*time.Time, error)
	SetLastSent(ctx context.Context, frequency entity.Frequency, at time.Time) error
}

type notifiedActivityStorage interface {
	CreateBatch(ctx context.Context, frequency entity.Frequency, activityIDs []string, at time.Time) error
	Prune(ctx context.Context, olderThan time.Time) error
}

type activitySelector interface {
	Select(ctx context.Context, frequency entity.Frequency, objectIDs []string, lastSent *time.Time, now time.Time) (map[string][]entity.Activity, error)
}

type transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Mailer hands one finished email to the transport. The engine does not
// care how envelopes travel.
type Mailer interface {
	Deliver(email, subject, plainBody, htmlBody string) error
}

// BundleRenderer turns one recipient's notifications into email content.
// Deployments can swap in their own; the engine only schedules.
type BundleRenderer interface {
	Render(email string, entries []dto.SubscriptionNotification) (subject, plainBody, htmlBody string)
}

// NotifyService runs one notification tier end to end: checks whether the
// tier is due, selects and groups ready activity, hands each bundle to the
// mailer and records the bookkeeping state. Each run is one transaction;
// any storage error rolls it back so the next tick retries the same
// window.
type NotifyService struct {
	policy        SchedulePolicy
	tx            transactor
	subscriptions fanoutStorage
	reportStates  reportStateStorage
	notified      notifiedActivityStorage
	selector      activitySelector
	renderer      BundleRenderer
	mailer        Mailer

	logger *types.Logger
}

func NewNotifyService(
	policy SchedulePolicy,
	tx transactor,
	subscriptions fanoutStorage,
	reportStates reportStateStorage,
	notified notifiedActivityStorage,
	selector activitySelector,
	renderer BundleRenderer,
	mailer Mailer,
	logger *types.Logger,
) *NotifyService {
	return &NotifyService{
		policy:        policy,
		tx:            tx,
		subscriptions: subscriptions,
		reportStates:  reportStates,
		notified:      notified,
		selector:      selector,
		renderer:      renderer,
		mailer:        mailer,
		logger:        logger,
	}
}

// RunImmediate processes the immediate tier. It is called on every poll;
// the debounce inside the selector decides what is ready.
func (s *NotifyService) RunImmediate(ctx context.Context, now time.Time) error {
	return s.runTier(ctx, entity.FrequencyImmediate, now)
}

// RunDaily processes the daily tier if its send time has passed since the
// last run. A not-due tick is a no-op and leaves the watermark alone.
func (s *NotifyService) RunDaily(ctx context.Context, now time.Time) error {
	return s.runTier(ctx, entity.FrequencyDaily, now)
}

func (s *NotifyService) RunWeekly(ctx context.Context, now time.Time) error {
	return s.runTier(ctx, entity.FrequencyWeekly, now)
}

func (s *NotifyService) runTier(ctx context.Context, frequency entity.Frequency, now time.Time) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		lastSent, err := s.reportStates.LastSent(ctx, frequency)
		if err != nil {
			return err
		}

		switch frequency {
		case entity.FrequencyDaily:
			if !s.policy.DailyDue(lastSent, now) {
				s.logger.Debugf("daily notifications not due yet")
				return nil
			}
		case entity.FrequencyWeekly:
			if !s.policy.WeeklyDue(lastSent, now) {
				s.logger.Debugf("weekly notifications not due yet")
				return nil
			}
		}

		subscribedTo, err := s.subscriptions.ObjectsSubscribedTo(ctx, frequency)
		if err != nil {
			return err
		}

		var notifications dto.NotificationsByEmail
		if len(subscribedTo) > 0 {
			objectIDs := make([]string, 0, len(subscribedTo))
			for objectID := range subscribedTo {
				objectIDs = append(objectIDs, objectID)
			}
			ready, errSelect := s.selector.Select(ctx, frequency, objectIDs, lastSent, now)
			if errSelect != nil {
				return errSelect
			}
			notifications = GroupNotificationsByEmail(ready, subscribedTo)
		}

		if len(notifications) == 0 {
			s.logger.Debugf("no emails to send (%s frequency)", frequency)
		} else {
			s.logger.Infof("sending %d emails (%s frequency)", len(notifications), frequency)
			s.deliver(notifications)
		}

		// A quiet period still advances the watermark, so the same dead
		// window is never rescanned. Selected activity is marked notified
		// whether or not its mail went out: one bad address must not cause
		// endless redelivery for everyone else.
		if err = s.reportStates.SetLastSent(ctx, frequency, now); err != nil {
			return err
		}
		if ids := notifications.ActivityIDs(); len(ids) > 0 {
			if err = s.notified.CreateBatch(ctx, frequency, ids, now); err != nil {
				return err
			}
		}
		return s.notified.Prune(ctx, now.Add(-s.policy.CatchUpWindow))
	})
}

func (s *NotifyService) deliver(notifications dto.NotificationsByEmail) {
	emails := make([]string, 0, len(notifications))
	for email := range notifications {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	for _, email := range emails {
		subject, plainBody, htmlBody := s.renderer.Render(email, notifications[email])
		if err := s.mailer.Deliver(email, subject, plainBody, htmlBody); err != nil {
			s.logger.Errorf("failed to send notification email to %s: %v", email, err)
			continue
		}
	}
}
