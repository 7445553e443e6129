package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Summary is the derived view of an account's ledger: counts are the set
// sizes, never stored independently.
type Summary struct {
	ProfileViews int64    `json:"profile_views"`
	Contacts     int64    `json:"contacts"`
	ViewedIDs    []string `json:"viewed_ids"`
	ContactedIDs []string `json:"contacted_ids"`
}

// Service is the per-account usage ledger. The acting account is taken from
// the request context; records are namespaced by account so one account can
// never observe another's counters.
//
// TrackView/TrackContact are idempotent: once an entity is counted it is
// never re-counted. CanViewProfile/CanContact never return errors; a lookup
// failure denies (callers surface an upgrade prompt, not an error state).
type Service interface {
	Get(ctx context.Context) (Summary, error)
	TrackView(ctx context.Context, entityID snowflake.ID) error
	TrackContact(ctx context.Context, entityID snowflake.ID) error
	Reset(ctx context.Context) error
	CanViewProfile(ctx context.Context, entityID snowflake.ID) bool
	CanContact(ctx context.Context, entityID snowflake.ID) bool
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidEntity  = errors.New("invalid_entity")
)
