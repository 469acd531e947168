package dto

import "time"

// ObjectActivityRange is the grouped shape the selector works on: for one
// object, the timestamps of its oldest and newest unreported activity
// inside the current window.
type ObjectActivityRange struct {
	ObjectID string
	Oldest   time.Time
	Newest   time.Time
}
