package service

import (
	"testing"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/entity"
)

func TestGroupNotificationsSingleSubscriber(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)

	subscription := entity.Subscription{
		ID:         "sub-1",
		Email:      "a@example.com",
		ObjectType: entity.ObjectTypeDataset,
		ObjectID:   "dataset-x",
		Frequency:  entity.FrequencyImmediate,
		Verified:   true,
		CreatedAt:  now.Add(-2 * time.Hour),
	}
	activity := entity.Activity{
		ID:        "act-1",
		ObjectID:  "dataset-x",
		Type:      "new package",
		Timestamp: now.Add(-10 * time.Minute),
	}

	got := GroupNotificationsByEmail(
		map[string][]entity.Activity{"dataset-x": {activity}},
		map[string][]entity.Subscription{"dataset-x": {subscription}},
	)

	entries, ok := got["a@example.com"]
	if !ok || len(got) != 1 {
		t.Fatalf("expected one bundle for a@example.com, got %v", got)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one subscription entry, got %d", len(entries))
	}
	if entries[0].Subscription.ID != "sub-1" {
		t.Fatalf("unexpected subscription in entry: %+v", entries[0].Subscription)
	}
	if len(entries[0].Activities) != 1 || entries[0].Activities[0].ID != "act-1" {
		t.Fatalf("unexpected activities in entry: %+v", entries[0].Activities)
	}
}

func TestGroupNotificationsCreatedTimeFilter(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)

	subscription := entity.Subscription{
		ID:        "sub-1",
		Email:     "a@example.com",
		ObjectID:  "dataset-x",
		CreatedAt: now.Add(-time.Hour),
	}
	activityByObject := map[string][]entity.Activity{
		"dataset-x": {
			{ID: "old", ObjectID: "dataset-x", Timestamp: now.Add(-2 * time.Hour)},
			{ID: "new", ObjectID: "dataset-x", Timestamp: now.Add(-10 * time.Minute)},
		},
	}

	got := GroupNotificationsByEmail(activityByObject,
		map[string][]entity.Subscription{"dataset-x": {subscription}})

	entries := got["a@example.com"]
	if len(entries) != 1 || len(entries[0].Activities) != 1 {
		t.Fatalf("expected exactly one surviving activity, got %v", got)
	}
	if entries[0].Activities[0].ID != "new" {
		t.Fatal("activity predating the subscription must be dropped")
	}
}

func TestGroupNotificationsDropsEmptyEntries(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)

	subscription := entity.Subscription{
		ID:        "sub-1",
		Email:     "a@example.com",
		ObjectID:  "dataset-x",
		CreatedAt: now, // everything below predates the subscription
	}
	activityByObject := map[string][]entity.Activity{
		"dataset-x": {
			{ID: "old", ObjectID: "dataset-x", Timestamp: now.Add(-time.Hour)},
		},
	}

	got := GroupNotificationsByEmail(activityByObject,
		map[string][]entity.Subscription{"dataset-x": {subscription}})
	if len(got) != 0 {
		t.Fatalf("expected no bundles when every activity is filtered out, got %v", got)
	}
}

func TestGroupNotificationsOrgExpansion(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)

	// a subscription to organization O, expanded by the storage layer to
	// the dataset D that O owns
	orgSubscription := entity.Subscription{
		ID:         "sub-org",
		Email:      "a@example.com",
		ObjectType: entity.ObjectTypeOrganization,
		ObjectID:   "org-o",
		CreatedAt:  now.Add(-24 * time.Hour),
	}
	activity := entity.Activity{
		ID:        "act-d",
		ObjectID:  "dataset-d",
		Type:      "new dataset",
		Timestamp: now.Add(-time.Hour),
	}

	got := GroupNotificationsByEmail(
		map[string][]entity.Activity{"dataset-d": {activity}},
		map[string][]entity.Subscription{"dataset-d": {orgSubscription}},
	)

	entries := got["a@example.com"]
	if len(entries) != 1 {
		t.Fatalf("expected one entry for the org subscriber, got %v", got)
	}
	if entries[0].Subscription.ObjectID != "org-o" {
		t.Fatal("entry must reference the org subscription, not the dataset")
	}
	if entries[0].Activities[0].ObjectID != "dataset-d" {
		t.Fatal("entry must carry the dataset's activity")
	}
}

func TestGroupNotificationsMergesActivityAcrossDatasets(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)

	orgSubscription := entity.Subscription{
		ID:        "sub-org",
		Email:     "a@example.com",
		ObjectID:  "org-o",
		CreatedAt: now.Add(-24 * time.Hour),
	}
	activityByObject := map[string][]entity.Activity{
		"dataset-1": {{ID: "act-1", ObjectID: "dataset-1", Timestamp: now.Add(-time.Hour)}},
		"dataset-2": {{ID: "act-2", ObjectID: "dataset-2", Timestamp: now.Add(-2 * time.Hour)}},
	}
	subscribedTo := map[string][]entity.Subscription{
		"dataset-1": {orgSubscription},
		"dataset-2": {orgSubscription},
	}

	got := GroupNotificationsByEmail(activityByObject, subscribedTo)

	entries := got["a@example.com"]
	if len(entries) != 1 {
		t.Fatalf("activity on two datasets of one org must share one entry, got %d entries", len(entries))
	}
	activities := entries[0].Activities
	if len(activities) != 2 {
		t.Fatalf("expected both activities, got %v", activities)
	}
	if !activities[0].Timestamp.Before(activities[1].Timestamp) {
		t.Fatal("activities must be ordered by timestamp ascending")
	}
}

func TestGroupNotificationsStableEntryOrder(t *testing.T) {
	t.Parallel()
	now := time.Date(2020, 1, 24, 10, 0, 0, 0, time.UTC)

	older := entity.Subscription{
		ID: "sub-older", Email: "a@example.com", ObjectID: "dataset-1",
		CreatedAt: now.Add(-48 * time.Hour),
	}
	newer := entity.Subscription{
		ID: "sub-newer", Email: "a@example.com", ObjectID: "dataset-2",
		CreatedAt: now.Add(-time.Hour),
	}
	activityByObject := map[string][]entity.Activity{
		"dataset-1": {{ID: "act-1", ObjectID: "dataset-1", Timestamp: now.Add(-30 * time.Minute)}},
		"dataset-2": {{ID: "act-2", ObjectID: "dataset-2", Timestamp: now.Add(-30 * time.Minute)}},
	}
	subscribedTo := map[string][]entity.Subscription{
		"dataset-1": {older},
		"dataset-2": {newer},
	}

	for i := 0; i < 10; i++ {
		got := GroupNotificationsByEmail(activityByObject, subscribedTo)
		entries := got["a@example.com"]
		if len(entries) != 2 {
			t.Fatalf("expected two entries, got %d", len(entries))
		}
		if entries[0].Subscription.ID != "sub-older" || entries[1].Subscription.ID != "sub-newer" {
			t.Fatalf("entries out of order: %s, %s",
				entries[0].Subscription.ID, entries[1].Subscription.ID)
		}
	}
}
