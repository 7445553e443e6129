package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert appends a record unless the (account, entity, kind) triple is
	// already present. Returns true when a new row was written.
	Insert(ctx context.Context, db *gorm.DB, record *Record) (bool, error)
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Record, error)
	Exists(ctx context.Context, db *gorm.DB, accountID, entityID snowflake.ID, kind Kind) (bool, error)
	CountByKind(ctx context.Context, db *gorm.DB, accountID snowflake.ID, kind Kind) (int64, error)
	DeleteByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) error
}
