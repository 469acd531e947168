package entity

import "time"

// ReportState is the per-tier watermark: the time up to which a tier's
// notifications are considered handled. One row per frequency, upserted
// after every completed run.
type ReportState struct {
	Frequency      Frequency `gorm:"primaryKey"`
	EmailsLastSent time.Time `gorm:"not null"`
}

// NotifiedActivity marks one activity as already included in an outgoing
// email of one tier, so a later run of that tier never reports it again.
// Tiers stay independent: an immediate delivery does not suppress the same
// activity for a daily or weekly subscriber. Rows are pruned once they
// fall outside the catch-up window.
type NotifiedActivity struct {
	ActivityID string    `gorm:"primaryKey;type:uuid"`
	Frequency  Frequency `gorm:"primaryKey"`
	NotifiedAt time.Time `gorm:"not null;index"`
}
