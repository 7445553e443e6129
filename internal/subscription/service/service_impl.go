package service

import (
	"context"
	"strings"

	"github.com/venturebridge/venturebridge/internal/accountctx"
	"github.com/venturebridge/venturebridge/internal/clock"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"github.com/venturebridge/venturebridge/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultRegion = "Global"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Registry *tier.Registry
	Repo     subscriptiondomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	registry *tier.Registry
	repo     subscriptiondomain.Repository
}

func New(p Params) subscriptiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		clock:    p.Clock,
		registry: p.Registry,
		repo:     p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (subscriptiondomain.Snapshot, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	record, err := s.repo.Find(ctx, s.db, accountID)
	if err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	if record == nil {
		// Never-registered accounts resolve to the free seeker tier. The
		// registry applies the same fallback for unknown tier IDs.
		return subscriptiondomain.Snapshot{
			Role:   tier.RoleSeeker,
			TierID: s.registry.Get("", tier.RoleSeeker).ID,
			Region: defaultRegion,
		}, nil
	}

	return s.toSnapshot(record), nil
}

func (s *Service) Register(ctx context.Context, role tier.Role) (subscriptiondomain.Snapshot, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}
	if role != tier.RoleProvider && role != tier.RoleSeeker && role != tier.RoleOperator {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidRole
	}

	now := s.clock.Now()
	record := &subscriptiondomain.AccountSubscription{
		AccountID: accountID,
		Role:      role,
		TierID:    s.registry.Get("", role).ID,
		Region:    defaultRegion,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	return s.toSnapshot(record), nil
}

func (s *Service) SetTier(ctx context.Context, req subscriptiondomain.SetTierRequest) (subscriptiondomain.Snapshot, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	tierID := tier.ID(strings.TrimSpace(string(req.TierID)))
	if tierID == "" {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidTier
	}

	record, err := s.repo.Find(ctx, s.db, accountID)
	if err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	if record == nil {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	// The new tier must exist and belong to the account's role family.
	def := s.registry.Get(tierID, record.Role)
	if def.ID != tierID || def.Role != record.Role {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidTier
	}

	record.TierID = tierID
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return subscriptiondomain.Snapshot{}, err
	}

	s.log.Info("tier changed",
		zap.String("account_id", accountID.String()),
		zap.String("tier_id", string(tierID)),
	)
	return s.toSnapshot(record), nil
}

func (s *Service) SetRegion(ctx context.Context, req subscriptiondomain.SetRegionRequest) (subscriptiondomain.Snapshot, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	region := strings.TrimSpace(req.Region)
	if region == "" {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidRegion
	}

	record, err := s.repo.Find(ctx, s.db, accountID)
	if err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	if record == nil {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	record.Region = region
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	return s.toSnapshot(record), nil
}

func (s *Service) SetMetadata(ctx context.Context, metadata map[string]any) (subscriptiondomain.Snapshot, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	record, err := s.repo.Find(ctx, s.db, accountID)
	if err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	if record == nil {
		return subscriptiondomain.Snapshot{}, subscriptiondomain.ErrInvalidAccount
	}

	record.Metadata = datatypes.JSONMap(metadata)
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	return s.toSnapshot(record), nil
}

func (s *Service) toSnapshot(record *subscriptiondomain.AccountSubscription) subscriptiondomain.Snapshot {
	return subscriptiondomain.Snapshot{
		Role:     record.Role,
		TierID:   record.TierID,
		Region:   record.Region,
		Metadata: map[string]any(record.Metadata),
	}
}
