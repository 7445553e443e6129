// Package domain contains persistence models for the per-account usage ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind names the metered action a ledger record counts.
type Kind string

const (
	KindProfileView Kind = "profile_view"
	KindContact     Kind = "contact"
)

// Record marks one entity as counted against one metric for one account.
// The (account_id, entity_id, kind) unique index makes tracking idempotent by
// construction: re-inserting an already-counted entity is a no-op.
type Record struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;uniqueIndex:ux_usage_account_entity_kind,priority:1"`
	EntityID  snowflake.ID `gorm:"not null;uniqueIndex:ux_usage_account_entity_kind,priority:2"`
	Kind      Kind         `gorm:"type:text;not null;uniqueIndex:ux_usage_account_entity_kind,priority:3"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "usage_records" }
