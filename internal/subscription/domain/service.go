package domain

import (
	"context"
	"errors"

	"github.com/venturebridge/venturebridge/internal/tier"
)

// Snapshot is the resolved view of an account's subscription.
type Snapshot struct {
	Role     tier.Role      `json:"role"`
	TierID   tier.ID        `json:"tier_id"`
	Region   string         `json:"region"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type SetTierRequest struct {
	TierID tier.ID `json:"tier_id"`
}

type SetRegionRequest struct {
	Region string `json:"region"`
}

// Service is the per-account subscription record store. The acting account is
// taken from the request context.
type Service interface {
	Get(ctx context.Context) (Snapshot, error)
	SetTier(ctx context.Context, req SetTierRequest) (Snapshot, error)
	SetRegion(ctx context.Context, req SetRegionRequest) (Snapshot, error)
	SetMetadata(ctx context.Context, metadata map[string]any) (Snapshot, error)
	Register(ctx context.Context, role tier.Role) (Snapshot, error)
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidTier    = errors.New("invalid_tier")
	ErrInvalidRegion  = errors.New("invalid_region")
	ErrInvalidRole    = errors.New("invalid_role")
)
