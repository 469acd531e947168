package postgres

import (
	"context"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/dto"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"
	"gorm.io/gorm"
)

type ActivityStorage struct {
	db *gorm.DB
}

func NewActivityStorage(db *gorm.DB) *ActivityStorage {
	return &ActivityStorage{
		db: db,
	}
}

// Create is a function that appends one activity to the feed.
func (s *ActivityStorage) Create(ctx context.Context, activity *entity.Activity) (*entity.Activity, error) {
	err := conn(ctx, s.db).Create(&activity).Error
	return activity, err
}

// ObjectRanges returns, per object, the oldest and newest timestamps of
// activity newer than since that the given tier has not reported yet.
func (s *ActivityStorage) ObjectRanges(ctx context.Context, frequency entity.Frequency, objectIDs []string, since time.Time) ([]dto.ObjectActivityRange, error) {
	var ranges []dto.ObjectActivityRange
	err := conn(ctx, s.db).Model(&entity.Activity{}).
		Select("activities.object_id AS object_id, MIN(activities.timestamp) AS oldest, MAX(activities.timestamp) AS newest").
		Joins("LEFT JOIN notified_activities ON notified_activities.activity_id = activities.id AND notified_activities.frequency = ?", frequency).
		Where("notified_activities.activity_id IS NULL").
		Where("activities.timestamp > ?", since).
		Where("activities.object_id IN ?", objectIDs).
		Group("activities.object_id").
		Scan(&ranges).Error
	return ranges, err
}

// ListSince returns the activity rows newer than since that the given
// tier has not reported yet, oldest first.
func (s *ActivityStorage) ListSince(ctx context.Context, frequency entity.Frequency, objectIDs []string, since time.Time) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := conn(ctx, s.db).Model(&entity.Activity{}).
		Joins("LEFT JOIN notified_activities ON notified_activities.activity_id = activities.id AND notified_activities.frequency = ?", frequency).
		Where("notified_activities.activity_id IS NULL").
		Where("activities.timestamp > ?", since).
		Where("activities.object_id IN ?", objectIDs).
		Order("activities.timestamp ASC").
		Find(&activities).Error
	return activities, err
}
