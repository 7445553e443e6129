// Package session scopes the engine to one authenticated account. A Session
// is constructed per sign-in and torn down at sign-out; there is no
// process-wide state, so two accounts can never share counters or caches by
// accident.
package session

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/venturebridge/venturebridge/internal/accountctx"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	"github.com/venturebridge/venturebridge/internal/entitlement"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"github.com/venturebridge/venturebridge/internal/tier"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FactoryParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Usage     usagedomain.Service
	SubSvc    subscriptiondomain.Service
	ConnSvc   connectiondomain.Service
	ConnCache connectiondomain.CacheRepository
	Gate      *entitlement.Gate
}

// Factory builds Sessions. The host application constructs one Session per
// authenticated account and discards it at sign-out.
type Factory struct {
	db        *gorm.DB
	log       *zap.Logger
	usage     usagedomain.Service
	subSvc    subscriptiondomain.Service
	connSvc   connectiondomain.Service
	connCache connectiondomain.CacheRepository
	gate      *entitlement.Gate
}

func NewFactory(p FactoryParams) *Factory {
	return &Factory{
		db:        p.DB,
		log:       p.Log.Named("session"),
		usage:     p.Usage,
		subSvc:    p.SubSvc,
		connSvc:   p.ConnSvc,
		connCache: p.ConnCache,
		gate:      p.Gate,
	}
}

func (f *Factory) New(accountID snowflake.ID) *Session {
	return &Session{
		accountID: accountID,
		factory:   f,
	}
}

// Session is the per-account context object. All engine calls go through
// Context so the account identity rides the request context and every store
// stays namespaced by it.
type Session struct {
	accountID snowflake.ID
	factory   *Factory
}

func (s *Session) AccountID() snowflake.ID { return s.accountID }

// Context binds the session's account into the request context.
func (s *Session) Context(ctx context.Context) context.Context {
	return accountctx.WithAccountID(ctx, s.accountID)
}

func (s *Session) Usage() usagedomain.Service { return s.factory.usage }

func (s *Session) Subscriptions() subscriptiondomain.Service { return s.factory.subSvc }

func (s *Session) Connections() connectiondomain.Service { return s.factory.connSvc }

func (s *Session) Gate() *entitlement.Gate { return s.factory.gate }

// ChangeTier switches the account's tier and resets its usage ledger, the
// billing-period semantics of an upgrade or downgrade.
func (s *Session) ChangeTier(ctx context.Context, tierID tier.ID) (subscriptiondomain.Snapshot, error) {
	ctx = s.Context(ctx)
	snapshot, err := s.factory.subSvc.SetTier(ctx, subscriptiondomain.SetTierRequest{TierID: tierID})
	if err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	if err := s.factory.usage.Reset(ctx); err != nil {
		return subscriptiondomain.Snapshot{}, err
	}
	return snapshot, nil
}

// Teardown is called by the host at sign-out. It drops the session's
// relationship cache so a later sign-in on the same device starts from
// authoritative state. The usage ledger survives; it belongs to the account,
// not the session.
func (s *Session) Teardown(ctx context.Context) error {
	ctx = s.Context(ctx)
	if err := s.factory.connCache.DeleteByAccount(ctx, s.factory.db, s.accountID); err != nil {
		return err
	}
	s.factory.log.Info("session torn down", zap.String("account_id", s.accountID.String()))
	return nil
}

var Module = fx.Module("session",
	fx.Provide(NewFactory),
)
