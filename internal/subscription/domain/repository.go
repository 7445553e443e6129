package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*AccountSubscription, error)
	Upsert(ctx context.Context, db *gorm.DB, record *AccountSubscription) error
}
