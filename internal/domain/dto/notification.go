package dto

import (
	"github.com/openportal/subscribe-notifier/internal/domain/entity"
)

// SubscriptionNotification pairs one subscription with the activity that
// matched it during a notification run. A digest email shows one section
// per entry.
type SubscriptionNotification struct {
	Subscription entity.Subscription
	Activities   []entity.Activity
}

// NotificationsByEmail groups the entries of one run by recipient address;
// each key becomes a single outgoing email.
type NotificationsByEmail map[string][]SubscriptionNotification

// ActivityIDs returns the ids of every activity referenced by any entry,
// without duplicates.
func (n NotificationsByEmail) ActivityIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, entries := range n {
		for _, entry := range entries {
			for _, activity := range entry.Activities {
				if _, ok := seen[activity.ID]; ok {
					continue
				}
				seen[activity.ID] = struct{}{}
				ids = append(ids, activity.ID)
			}
		}
	}
	return ids
}
