package postgres

import (
	"context"
	"errors"

	"github.com/openportal/subscribe-notifier/internal/domain/common/errorz"
	"github.com/openportal/subscribe-notifier/internal/domain/entity"
	"gorm.io/gorm"
)

type SubscriptionStorage struct {
	db *gorm.DB
}

func NewSubscriptionStorage(db *gorm.DB) *SubscriptionStorage {
	return &SubscriptionStorage{
		db: db,
	}
}

// Create is a function that creates a new subscription in the database.
func (s *SubscriptionStorage) Create(ctx context.Context, subscription *entity.Subscription) (*entity.Subscription, error) {
	err := conn(ctx, s.db).Create(&subscription).Error
	return subscription, err
}

// Get is a function that gets a subscription from the database by id.
func (s *SubscriptionStorage) Get(ctx context.Context, id string) (*entity.Subscription, error) {
	var subscription entity.Subscription
	err := conn(ctx, s.db).Where("id = ?", id).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrSubscriptionNotFound
	}
	return &subscription, err
}

// GetByTarget is a function that gets a subscription by its unique
// (email, object_type, object_id) triple.
func (s *SubscriptionStorage) GetByTarget(ctx context.Context, email string, objectType entity.ObjectType, objectID string) (*entity.Subscription, error) {
	var subscription entity.Subscription
	err := conn(ctx, s.db).
		Where("email = ? AND object_type = ? AND object_id = ?", email, objectType, objectID).
		First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrSubscriptionNotFound
	}
	return &subscription, err
}

// Update is a function that updates a subscription in the database.
func (s *SubscriptionStorage) Update(ctx context.Context, subscription *entity.Subscription) (*entity.Subscription, error) {
	err := conn(ctx, s.db).Save(&subscription).Error
	return subscription, err
}

// Delete is a function that deletes a subscription from the database.
func (s *SubscriptionStorage) Delete(ctx context.Context, id string) error {
	return conn(ctx, s.db).Delete(&entity.Subscription{}, "id = ?", id).Error
}

// ListVerified is a function that gets all verified subscriptions with the
// given frequency.
func (s *SubscriptionStorage) ListVerified(ctx context.Context, frequency entity.Frequency) ([]entity.Subscription, error) {
	var subscriptions []entity.Subscription
	err := conn(ctx, s.db).
		Where("verified = ? AND frequency = ?", true, frequency).
		Find(&subscriptions).Error
	return subscriptions, err
}

type expandedSubscription struct {
	entity.Subscription `gorm:"embedded"`
	DatasetID           string
}

// ObjectsSubscribedTo returns every object id the given tier is listening
// on, mapped to the subscriptions covering it. Besides direct
// subscriptions it expands subscriptions to active organizations into the
// datasets they own, and subscriptions to active plain groups into their
// member datasets.
func (s *SubscriptionStorage) ObjectsSubscribedTo(ctx context.Context, frequency entity.Frequency) (map[string][]entity.Subscription, error) {
	subscribedTo := make(map[string][]entity.Subscription)

	var direct []entity.Subscription
	err := conn(ctx, s.db).
		Where("verified = ? AND frequency = ?", true, frequency).
		Find(&direct).Error
	if err != nil {
		return nil, err
	}
	for _, subscription := range direct {
		subscribedTo[subscription.ObjectID] = append(subscribedTo[subscription.ObjectID], subscription)
	}

	var owned []expandedSubscription
	err = conn(ctx, s.db).Model(&entity.Subscription{}).
		Select("subscriptions.*, datasets.id AS dataset_id").
		Joins("JOIN groups ON groups.id = subscriptions.object_id AND groups.state = 'active' AND groups.is_organization = true").
		Joins("JOIN datasets ON datasets.owner_org = groups.id").
		Where("subscriptions.verified = ? AND subscriptions.frequency = ?", true, frequency).
		Scan(&owned).Error
	if err != nil {
		return nil, err
	}
	for _, row := range owned {
		subscribedTo[row.DatasetID] = append(subscribedTo[row.DatasetID], row.Subscription)
	}

	var members []expandedSubscription
	err = conn(ctx, s.db).Model(&entity.Subscription{}).
		Select("subscriptions.*, datasets.id AS dataset_id").
		Joins("JOIN groups ON groups.id = subscriptions.object_id AND groups.state = 'active' AND groups.is_organization = false").
		Joins("JOIN members ON members.group_id = groups.id AND members.state = 'active'").
		Joins("JOIN datasets ON datasets.id = members.dataset_id").
		Where("subscriptions.verified = ? AND subscriptions.frequency = ?", true, frequency).
		Scan(&members).Error
	if err != nil {
		return nil, err
	}
	for _, row := range members {
		subscribedTo[row.DatasetID] = append(subscribedTo[row.DatasetID], row.Subscription)
	}

	return subscribedTo, nil
}
