package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*subscriptiondomain.AccountSubscription, error) {
	var record subscriptiondomain.AccountSubscription
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *subscriptiondomain.AccountSubscription) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "tier_id", "region", "metadata", "updated_at"}),
	}).Create(record).Error
}
