package service

import (
	"context"
	"testing"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/dto"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"
)

// fakeFeed serves canned activity and records the windows it was asked
// about.
type fakeFeed struct {
	activities []entity.Activity

	rangeCalls []time.Time
	listCalls  []time.Time
}

func (f *fakeFeed) ObjectRanges(_ context.Context, _ entity.Frequency, objectIDs []string, since time.Time) ([]dto.ObjectActivityRange, error) {
	f.rangeCalls = append(f.rangeCalls, since)
	ranges := make(map[string]*dto.ObjectActivityRange)
	for _, activity := range f.activities {
		if !activity.Timestamp.After(since) || !contains(objectIDs, activity.ObjectID) {
			continue
		}
		r, ok := ranges[activity.ObjectID]
		if !ok {
			ranges[activity.ObjectID] = &dto.ObjectActivityRange{
				ObjectID: activity.ObjectID,
				Oldest:   activity.Timestamp,
				Newest:   activity.Timestamp,
			}
			continue
		}
		if activity.Timestamp.Before(r.Oldest) {
			r.Oldest = activity.Timestamp
		}
		if activity.Timestamp.After(r.Newest) {
			r.Newest = activity.Timestamp
		}
	}
	var out []dto.ObjectActivityRange
	for _, r := range ranges {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeFeed) ListSince(_ context.Context, _ entity.Frequency, objectIDs []string, since time.Time) ([]entity.Activity, error) {
	f.listCalls = append(f.listCalls, since)
	var out []entity.Activity
	for _, activity := range f.activities {
		if activity.Timestamp.After(since) && contains(objectIDs, activity.ObjectID) {
			out = append(out, activity)
		}
	}
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func TestSelectEmptySubscribedSet(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{}
	selector := NewSelectorService(DefaultSchedulePolicy(), feed)

	got, err := selector.Select(context.Background(), entity.FrequencyImmediate, nil, nil, time.Now())
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil result for empty subscribed set, got %v", got)
	}
	if len(feed.rangeCalls) != 0 || len(feed.listCalls) != 0 {
		t.Fatal("expected no feed queries for empty subscribed set")
	}
}

func TestSelectImmediateDebounce(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)
	feed := &fakeFeed{activities: []entity.Activity{
		{ID: "a1", ObjectID: "settled", Timestamp: now.Add(-20 * time.Minute)},
		{ID: "a2", ObjectID: "hot", Timestamp: now.Add(-10 * time.Minute)},
		{ID: "a3", ObjectID: "hot", Timestamp: now.Add(-time.Minute)},
	}}
	selector := NewSelectorService(DefaultSchedulePolicy(), feed)

	got, err := selector.Select(context.Background(), entity.FrequencyImmediate,
		[]string{"settled", "hot"}, nil, now)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 ready object, got %d", len(got))
	}
	if len(got["settled"]) != 1 || got["settled"][0].ID != "a1" {
		t.Fatalf("expected settled object's activity, got %v", got)
	}
	if _, ok := got["hot"]; ok {
		t.Fatal("hot object must be held back by the debounce")
	}
}

func TestSelectImmediateGraceMaxOverridesOngoingEdits(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)
	feed := &fakeFeed{activities: []entity.Activity{
		{ID: "a1", ObjectID: "busy", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "a2", ObjectID: "busy", Timestamp: now.Add(-time.Minute)},
	}}
	selector := NewSelectorService(DefaultSchedulePolicy(), feed)

	got, err := selector.Select(context.Background(), entity.FrequencyImmediate,
		[]string{"busy"}, nil, now)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(got["busy"]) != 2 {
		t.Fatalf("expected both events for object past grace-max, got %v", got)
	}
}

func TestSelectCatchUpBound(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)
	policy := DefaultSchedulePolicy()
	feed := &fakeFeed{activities: []entity.Activity{
		{ID: "ancient", ObjectID: "x", Timestamp: now.Add(-90 * 24 * time.Hour)},
		{ID: "recent", ObjectID: "x", Timestamp: now.Add(-time.Hour)},
	}}
	selector := NewSelectorService(policy, feed)

	// watermark far in the past must not widen the window
	staleWatermark := now.Add(-90 * 24 * time.Hour)
	got, err := selector.Select(context.Background(), entity.FrequencyDaily,
		[]string{"x"}, &staleWatermark, now)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(got["x"]) != 1 || got["x"][0].ID != "recent" {
		t.Fatalf("expected only activity inside the catch-up window, got %v", got)
	}
	if want := now.Add(-policy.CatchUpWindow); !feed.rangeCalls[0].Equal(want) {
		t.Fatalf("window floor = %v, want %v", feed.rangeCalls[0], want)
	}
}

func TestSelectDailySkipsDebounce(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)
	feed := &fakeFeed{activities: []entity.Activity{
		{ID: "a1", ObjectID: "fresh", Timestamp: now.Add(-time.Minute)},
	}}
	selector := NewSelectorService(DefaultSchedulePolicy(), feed)

	got, err := selector.Select(context.Background(), entity.FrequencyDaily,
		[]string{"fresh"}, nil, now)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(got["fresh"]) != 1 {
		t.Fatalf("daily tier must report fresh activity without debounce, got %v", got)
	}
}

func TestSelectQuietWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)
	feed := &fakeFeed{}
	selector := NewSelectorService(DefaultSchedulePolicy(), feed)

	got, err := selector.Select(context.Background(), entity.FrequencyImmediate,
		[]string{"x"}, nil, now)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil result for quiet window, got %v", got)
	}
	if len(feed.listCalls) != 0 {
		t.Fatal("expected no row fetch when nothing is ready")
	}
}
