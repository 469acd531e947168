package entity

import (
	"fmt"
	"time"
)

type ObjectType string

const (
	ObjectTypeDataset      ObjectType = "dataset"
	ObjectTypeGroup        ObjectType = "group"
	ObjectTypeOrganization ObjectType = "organization"
)

type Frequency int

const (
	FrequencyImmediate Frequency = 1
	FrequencyDaily     Frequency = 2
	FrequencyWeekly    Frequency = 3
)

func (f Frequency) String() string {
	switch f {
	case FrequencyImmediate:
		return "immediate"
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	}
	return fmt.Sprintf("unknown(%d)", int(f))
}

// ParseFrequency converts a user-supplied frequency name to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "immediate":
		return FrequencyImmediate, nil
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	}
	return 0, fmt.Errorf("unknown frequency: %q", s)
}

// Subscription is a record of an email address asking to be notified about
// activity on a dataset, group or organization. Only verified subscriptions
// take part in notification runs.
type Subscription struct {
	ID         string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email      string     `gorm:"not null;uniqueIndex:idx_subscription_target"`
	ObjectType ObjectType `gorm:"not null;uniqueIndex:idx_subscription_target"`
	ObjectID   string     `gorm:"not null;uniqueIndex:idx_subscription_target"`
	Frequency  Frequency  `gorm:"not null"`
	Verified   bool       `gorm:"not null;default:false"`
	CreatedAt  time.Time  `gorm:"not null"`
}
