// Package domain contains models and contracts for the connection request
// lifecycle between two accounts.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents lifecycle states for a connection.
type Status string

const (
	StatusNone         Status = "none"
	StatusPending      Status = "pending"
	StatusAccepted     Status = "accepted"
	StatusDeclined     Status = "declined"
	StatusDisconnected Status = "disconnected"
)

// Connection is the authoritative persistence model. At most one row exists
// per unordered account pair; decline and disconnect remove the row so the
// pair returns to none and a fresh request can follow immediately.
type Connection struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	PairKey     string       `gorm:"type:text;not null;uniqueIndex:ux_connections_pair"`
	InitiatorID snowflake.ID `gorm:"not null;index"`
	RecipientID snowflake.ID `gorm:"not null;index"`
	Status      Status       `gorm:"type:text;not null"`
	DealClosed  bool         `gorm:"not null;default:false"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Connection) TableName() string { return "connections" }

// PairKey builds the canonical unordered-pair key for two accounts.
func PairKey(a, b snowflake.ID) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Relationship is the read model every UI surface consumes before rendering
// action buttons.
type Relationship struct {
	ConnectionID snowflake.ID `json:"connection_id"`
	InitiatorID  snowflake.ID `json:"initiator_id"`
	RecipientID  snowflake.ID `json:"recipient_id"`
	Status       Status       `json:"status"`
	DealClosed   bool         `json:"deal_closed"`
}

// Incoming reports whether the request points at the viewer. Always derived
// from InitiatorID, never persisted, so it cannot go stale.
func (r Relationship) Incoming(viewer snowflake.ID) bool {
	return r.InitiatorID != viewer
}

// CacheEntry mirrors the last authoritative answer for one viewer and
// counterparty. Advisory only: written exclusively from confirmed
// GetConnection results, never from client-guessed state.
type CacheEntry struct {
	AccountID      snowflake.ID `gorm:"primaryKey;column:account_id"`
	CounterpartyID snowflake.ID `gorm:"primaryKey;column:counterparty_id"`
	ConnectionID   snowflake.ID `gorm:"not null"`
	InitiatorID    snowflake.ID `gorm:"not null"`
	Status         Status       `gorm:"type:text;not null"`
	DealClosed     bool         `gorm:"not null;default:false"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CacheEntry) TableName() string { return "connection_cache" }
