package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/venturebridge/venturebridge/internal/accountctx"
	"github.com/venturebridge/venturebridge/internal/clock"
	obsmetrics "github.com/venturebridge/venturebridge/internal/observability/metrics"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"github.com/venturebridge/venturebridge/internal/tier"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Registry *tier.Registry
	SubSvc   subscriptiondomain.Service
	Repo     usagedomain.Repository
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	registry *tier.Registry
	subSvc   subscriptiondomain.Service
	repo     usagedomain.Repository
	metrics  *obsmetrics.Metrics
}

func New(p Params) usagedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("usage.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		registry: p.Registry,
		subSvc:   p.SubSvc,
		repo:     p.Repo,
		metrics:  p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context) (usagedomain.Summary, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return usagedomain.Summary{}, usagedomain.ErrInvalidAccount
	}

	records, err := s.repo.ListByAccount(ctx, s.db, accountID)
	if err != nil {
		return usagedomain.Summary{}, err
	}

	// An account that has never been tracked yields a zeroed summary.
	summary := usagedomain.Summary{
		ViewedIDs:    []string{},
		ContactedIDs: []string{},
	}
	for _, record := range records {
		switch record.Kind {
		case usagedomain.KindProfileView:
			summary.ProfileViews++
			summary.ViewedIDs = append(summary.ViewedIDs, record.EntityID.String())
		case usagedomain.KindContact:
			summary.Contacts++
			summary.ContactedIDs = append(summary.ContactedIDs, record.EntityID.String())
		}
	}
	return summary, nil
}

func (s *Service) TrackView(ctx context.Context, entityID snowflake.ID) error {
	return s.track(ctx, entityID, usagedomain.KindProfileView)
}

func (s *Service) TrackContact(ctx context.Context, entityID snowflake.ID) error {
	return s.track(ctx, entityID, usagedomain.KindContact)
}

func (s *Service) track(ctx context.Context, entityID snowflake.ID, kind usagedomain.Kind) error {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return usagedomain.ErrInvalidAccount
	}
	if entityID == 0 {
		return usagedomain.ErrInvalidEntity
	}

	record := &usagedomain.Record{
		ID:        s.genID.Generate(),
		AccountID: accountID,
		EntityID:  entityID,
		Kind:      kind,
		CreatedAt: s.clock.Now(),
	}
	inserted, err := s.repo.Insert(ctx, s.db, record)
	if err != nil {
		return err
	}
	if !inserted {
		// Already counted; idempotent no-op.
		return nil
	}
	s.metrics.RecordUsage(string(kind))

	s.log.Debug("usage tracked",
		zap.String("account_id", accountID.String()),
		zap.String("entity_id", entityID.String()),
		zap.String("kind", string(kind)),
	)
	return nil
}

// Reset clears both sets and counters to zero. Invoked by the host on tier
// change or billing rollover; the ledger itself never schedules time.
func (s *Service) Reset(ctx context.Context) error {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return usagedomain.ErrInvalidAccount
	}
	if err := s.repo.DeleteByAccount(ctx, s.db, accountID); err != nil {
		return err
	}
	s.log.Info("usage reset", zap.String("account_id", accountID.String()))
	return nil
}

func (s *Service) CanViewProfile(ctx context.Context, entityID snowflake.ID) bool {
	return s.permits(ctx, entityID, usagedomain.KindProfileView, tier.MetricProfileViews)
}

func (s *Service) CanContact(ctx context.Context, entityID snowflake.ID) bool {
	return s.permits(ctx, entityID, usagedomain.KindContact, tier.MetricContacts)
}

// permits applies the grandfathering rule first: an already-counted entity is
// always permitted regardless of remaining quota. Only uncounted entities are
// checked against the tier ceiling. Lookup failures deny.
func (s *Service) permits(ctx context.Context, entityID snowflake.ID, kind usagedomain.Kind, metric tier.Metric) bool {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return false
	}

	if entityID != 0 {
		counted, err := s.repo.Exists(ctx, s.db, accountID, entityID, kind)
		if err != nil {
			s.log.Warn("usage lookup failed", zap.Error(err))
			return false
		}
		if counted {
			return true
		}
	}

	snapshot, err := s.subSvc.Get(ctx)
	if err != nil {
		s.log.Warn("subscription lookup failed", zap.Error(err))
		return false
	}
	quota := s.registry.Quota(snapshot.TierID, snapshot.Role, metric)
	if quota.IsUnbounded() {
		return true
	}

	used, err := s.repo.CountByKind(ctx, s.db, accountID, kind)
	if err != nil {
		s.log.Warn("usage count failed", zap.Error(err))
		return false
	}
	return quota.Allows(used)
}
