package service

import (
	"sort"

	"github.com/openportal/subscribe-notifier/internal/domain/dto"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"
)

// GroupNotificationsByEmail joins ready activity back to the subscriptions
// listening for it and regroups the result per recipient, so one email can
// carry all of a subscriber's notifications.
//
// subscribedTo maps object id to the subscriptions covering it, already
// expanded through org/group membership: a subscription to an organization
// appears under every dataset that org owns. Activity older than a
// subscription is dropped: a subscriber is never told about history that
// predates their signup. Entries and their activities come out in a stable
// order (subscription creation time, then activity timestamp).
func GroupNotificationsByEmail(
	activityByObject map[string][]entity.Activity,
	subscribedTo map[string][]entity.Subscription,
) dto.NotificationsByEmail {
	type bucket struct {
		subscription entity.Subscription
		activities   []entity.Activity
	}
	// one bucket per subscription so activity on several datasets of the
	// same org accumulates under a single entry
	buckets := make(map[string]*bucket)
	byEmail := make(map[string][]string)

	for objectID, activities := range activityByObject {
		for _, subscription := range subscribedTo[objectID] {
			for _, activity := range activities {
				if activity.Timestamp.Before(subscription.CreatedAt) {
					continue
				}
				b, ok := buckets[subscription.ID]
				if !ok {
					b = &bucket{subscription: subscription}
					buckets[subscription.ID] = b
					byEmail[subscription.Email] = append(byEmail[subscription.Email], subscription.ID)
				}
				b.activities = append(b.activities, activity)
			}
		}
	}

	notifications := make(dto.NotificationsByEmail, len(byEmail))
	for email, subscriptionIDs := range byEmail {
		entries := make([]dto.SubscriptionNotification, 0, len(subscriptionIDs))
		for _, id := range subscriptionIDs {
			b := buckets[id]
			sort.SliceStable(b.activities, func(i, j int) bool {
				return b.activities[i].Timestamp.Before(b.activities[j].Timestamp)
			})
			entries = append(entries, dto.SubscriptionNotification{
				Subscription: b.subscription,
				Activities:   b.activities,
			})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].Subscription, entries[j].Subscription
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
		notifications[email] = entries
	}
	return notifications
}
