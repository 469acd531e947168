package postgres

import (
	"context"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotifiedActivityStorage struct {
	db *gorm.DB
}

func NewNotifiedActivityStorage(db *gorm.DB) *NotifiedActivityStorage {
	return &NotifiedActivityStorage{
		db: db,
	}
}

// CreateBatch records that the given activities were included in one
// tier's outgoing email. Re-inserting an already recorded id is a no-op,
// so a retried tick stays safe.
func (s *NotifiedActivityStorage) CreateBatch(ctx context.Context, frequency entity.Frequency, activityIDs []string, at time.Time) error {
	if len(activityIDs) == 0 {
		return nil
	}
	rows := make([]entity.NotifiedActivity, 0, len(activityIDs))
	for _, id := range activityIDs {
		rows = append(rows, entity.NotifiedActivity{
			ActivityID: id,
			Frequency:  frequency,
			NotifiedAt: at,
		})
	}
	return conn(ctx, s.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Prune drops dedup rows that have aged out of the catch-up window; the
// window bound alone excludes their activity from any future run.
func (s *NotifiedActivityStorage) Prune(ctx context.Context, olderThan time.Time) error {
	return conn(ctx, s.db).
		Where("notified_at < ?", olderThan).
		Delete(&entity.NotifiedActivity{}).Error
}
