package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// RemoteService is the authoritative system of record for connection state.
// The lifecycle manager consumes it; it never owns the truth itself.
type RemoteService interface {
	// CreateConnection opens a pending request. Fails with ErrAlreadyExists
	// when the pair already has a live connection and ErrSelfTarget when
	// initiator == recipient.
	CreateConnection(ctx context.Context, initiator, recipient snowflake.ID) (snowflake.ID, error)
	// GetConnection returns the live relationship for an unordered pair, or
	// nil when none exists.
	GetConnection(ctx context.Context, a, b snowflake.ID) (*Relationship, error)
	// UpdateStatus transitions the connection. Declined and disconnected
	// invalidate the handle; the pair returns to none.
	UpdateStatus(ctx context.Context, id snowflake.ID, status Status) error
	MarkDealClosed(ctx context.Context, id snowflake.ID) error
	DeleteConnection(ctx context.Context, id snowflake.ID) error
}

// Service is the relationship lifecycle manager. The acting account comes
// from the request context. Every mutation performs the remote call first and
// then reconciles the local cache from a fresh authoritative read; the
// manager never guesses the resulting state. Remote failures surface as typed
// errors and are never retried automatically.
type Service interface {
	GetStatus(ctx context.Context, counterpartyID snowflake.ID) (*Relationship, error)
	// CachedStatus serves the last reconciled answer without a remote round
	// trip; advisory only, for the initial render.
	CachedStatus(ctx context.Context, counterpartyID snowflake.ID) (*Relationship, error)
	SendRequest(ctx context.Context, counterpartyID snowflake.ID) (*Relationship, error)
	Accept(ctx context.Context, counterpartyID snowflake.ID) (*Relationship, error)
	Decline(ctx context.Context, counterpartyID snowflake.ID) error
	Disconnect(ctx context.Context, counterpartyID snowflake.ID) error
	CloseDeal(ctx context.Context, counterpartyID snowflake.ID) (*Relationship, error)
}

// CacheRepository stores the per-viewer mirror of authoritative results.
type CacheRepository interface {
	Upsert(ctx context.Context, db *gorm.DB, entry *CacheEntry) error
	Find(ctx context.Context, db *gorm.DB, accountID, counterpartyID snowflake.ID) (*CacheEntry, error)
	Delete(ctx context.Context, db *gorm.DB, accountID, counterpartyID snowflake.ID) error
	DeleteByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) error
}

var (
	ErrAlreadyExists     = errors.New("connection_already_exists")
	ErrNotFound          = errors.New("connection_not_found")
	ErrNotAuthorized     = errors.New("connection_not_authorized")
	ErrSelfTarget        = errors.New("connection_self_target")
	ErrRemoteUnavailable = errors.New("remote_unavailable")
	ErrInvalidAccount    = errors.New("invalid_account")
)
