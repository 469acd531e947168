package service

import (
	"context"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/dto"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"
)

type activityFeed interface {
	ObjectRanges(ctx context.Context, frequency entity.Frequency, objectIDs []string, since time.Time) ([]dto.ObjectActivityRange, error)
	ListSince(ctx context.Context, frequency entity.Frequency, objectIDs []string, since time.Time) ([]entity.Activity, error)
}

// SelectorService decides which subscribed objects have activity that is
// ready to report now, and fetches that activity. The feed queries exclude
// activity the queried tier has already reported, so the selector never
// sees the same row twice for one tier.
type SelectorService struct {
	policy SchedulePolicy
	feed   activityFeed
}

func NewSelectorService(policy SchedulePolicy, feed activityFeed) *SelectorService {
	return &SelectorService{
		policy: policy,
		feed:   feed,
	}
}

// Select returns the ready activity for one tier, grouped by object id.
//
// The daily and weekly tiers window on max(watermark, now-catchUpWindow)
// and take everything inside it. The immediate tier windows on the
// catch-up bound alone and relies on the notified-activity exclusion for
// duplicate suppression: objects held back by the debounce must stay
// visible to later polls even after the watermark has moved past their
// timestamps.
func (s *SelectorService) Select(
	ctx context.Context,
	frequency entity.Frequency,
	objectIDs []string,
	lastSent *time.Time,
	now time.Time,
) (map[string][]entity.Activity, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}

	var floor time.Time
	if frequency == entity.FrequencyImmediate {
		floor = now.Add(-s.policy.CatchUpWindow)
	} else {
		floor = s.policy.IncludeActivityFrom(lastSent, now)
	}

	ranges, err := s.feed.ObjectRanges(ctx, frequency, objectIDs, floor)
	if err != nil {
		return nil, err
	}

	var ready []string
	for _, r := range ranges {
		if frequency == entity.FrequencyImmediate && !s.policy.ReadyToReport(r.Oldest, r.Newest, now) {
			continue
		}
		ready = append(ready, r.ObjectID)
	}
	if len(ready) == 0 {
		return nil, nil
	}

	activities, err := s.feed.ListSince(ctx, frequency, ready, floor)
	if err != nil {
		return nil, err
	}

	byObject := make(map[string][]entity.Activity, len(ready))
	for _, activity := range activities {
		byObject[activity.ObjectID] = append(byObject[activity.ObjectID], activity)
	}
	return byObject, nil
}
