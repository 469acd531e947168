package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/openportal/subscribe-notifier/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportStateStorage struct {
	db *gorm.DB
}

func NewReportStateStorage(db *gorm.DB) *ReportStateStorage {
	return &ReportStateStorage{
		db: db,
	}
}

// LastSent returns the watermark for one tier, or nil before the first
// completed run.
func (s *ReportStateStorage) LastSent(ctx context.Context, frequency entity.Frequency) (*time.Time, error) {
	var state entity.ReportState
	err := conn(ctx, s.db).Where("frequency = ?", frequency).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state.EmailsLastSent, nil
}

// SetLastSent upserts the watermark row for one tier.
func (s *ReportStateStorage) SetLastSent(ctx context.Context, frequency entity.Frequency, at time.Time) error {
	return conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "frequency"}},
		DoUpdates: clause.AssignmentColumns([]string{"emails_last_sent"}),
	}).Create(&entity.ReportState{
		Frequency:      frequency,
		EmailsLastSent: at,
	}).Error
}
