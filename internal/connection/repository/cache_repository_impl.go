package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cacheRepo struct{}

func ProvideCache() connectiondomain.CacheRepository {
	return &cacheRepo{}
}

func (r *cacheRepo) Upsert(ctx context.Context, db *gorm.DB, entry *connectiondomain.CacheEntry) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account_id"},
			{Name: "counterparty_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"connection_id", "initiator_id", "status", "deal_closed", "updated_at"}),
	}).Create(entry).Error
}

func (r *cacheRepo) Find(ctx context.Context, db *gorm.DB, accountID, counterpartyID snowflake.ID) (*connectiondomain.CacheEntry, error) {
	var entry connectiondomain.CacheEntry
	err := db.WithContext(ctx).
		Where("account_id = ? AND counterparty_id = ?", accountID, counterpartyID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *cacheRepo) Delete(ctx context.Context, db *gorm.DB, accountID, counterpartyID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("account_id = ? AND counterparty_id = ?", accountID, counterpartyID).
		Delete(&connectiondomain.CacheEntry{}).Error
}

func (r *cacheRepo) DeleteByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&connectiondomain.CacheEntry{}).Error
}
