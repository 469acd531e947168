package entity

import "time"

// Activity is one row of the externally populated activity feed: a fact
// that an object changed at some point in time. Rows are append-only and
// never modified once written.
type Activity struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ObjectID  string    `gorm:"not null;index:idx_activity_object_time"`
	Type      string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index:idx_activity_object_time"`
	Payload   string
}
