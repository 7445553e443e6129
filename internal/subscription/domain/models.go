// Package domain contains the per-account subscription preference record:
// which tier is active and which region drives display pricing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/venturebridge/venturebridge/internal/tier"
	"gorm.io/datatypes"
)

// AccountSubscription captures the account's active tier and region choice.
// Exactly one record per account; tier mutated on upgrade/downgrade, region
// mutated by user preference.
type AccountSubscription struct {
	AccountID snowflake.ID      `gorm:"primaryKey;column:account_id"`
	Role      tier.Role         `gorm:"type:text;not null"`
	TierID    tier.ID           `gorm:"type:text;not null"`
	Region    string            `gorm:"type:text;not null"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AccountSubscription) TableName() string { return "account_subscriptions" }
