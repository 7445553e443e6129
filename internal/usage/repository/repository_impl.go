package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *usagedomain.Record) (bool, error) {
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account_id"},
			{Name: "entity_id"},
			{Name: "kind"},
		},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]usagedomain.Record, error) {
	var records []usagedomain.Record
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, accountID, entityID snowflake.ID, kind usagedomain.Kind) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&usagedomain.Record{}).
		Where("account_id = ? AND entity_id = ? AND kind = ?", accountID, entityID, kind).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) CountByKind(ctx context.Context, db *gorm.DB, accountID snowflake.ID, kind usagedomain.Kind) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&usagedomain.Record{}).
		Where("account_id = ? AND kind = ?", accountID, kind).
		Count(&count).Error
	return count, err
}

func (r *repo) DeleteByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&usagedomain.Record{}).Error
}
