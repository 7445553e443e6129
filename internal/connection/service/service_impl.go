package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/venturebridge/venturebridge/internal/accountctx"
	"github.com/venturebridge/venturebridge/internal/clock"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Remote connectiondomain.RemoteService
	Cache  connectiondomain.CacheRepository
}

// Service is the relationship lifecycle manager. It validates what it can
// locally (self targeting, transition legality against the latest
// authoritative read), performs the remote mutation, then reconciles the
// local cache from a fresh authoritative read. A failed mutation leaves the
// cache untouched.
type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	remote connectiondomain.RemoteService
	cache  connectiondomain.CacheRepository
}

func New(p Params) connectiondomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("connection.service"),
		clock:  p.Clock,
		remote: p.Remote,
		cache:  p.Cache,
	}
}

func (s *Service) GetStatus(ctx context.Context, counterpartyID snowflake.ID) (*connectiondomain.Relationship, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, connectiondomain.ErrInvalidAccount
	}
	return s.reconcile(ctx, accountID, counterpartyID)
}

func (s *Service) CachedStatus(ctx context.Context, counterpartyID snowflake.ID) (*connectiondomain.Relationship, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, connectiondomain.ErrInvalidAccount
	}

	entry, err := s.cache.Find(ctx, s.db, accountID, counterpartyID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	recipient := counterpartyID
	if entry.InitiatorID == counterpartyID {
		recipient = accountID
	}
	return &connectiondomain.Relationship{
		ConnectionID: entry.ConnectionID,
		InitiatorID:  entry.InitiatorID,
		RecipientID:  recipient,
		Status:       entry.Status,
		DealClosed:   entry.DealClosed,
	}, nil
}

func (s *Service) SendRequest(ctx context.Context, counterpartyID snowflake.ID) (*connectiondomain.Relationship, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, connectiondomain.ErrInvalidAccount
	}
	if accountID == counterpartyID {
		// Rejected before any remote call.
		return nil, connectiondomain.ErrSelfTarget
	}

	if _, err := s.remote.CreateConnection(ctx, accountID, counterpartyID); err != nil {
		return nil, err
	}
	return s.reconcile(ctx, accountID, counterpartyID)
}

func (s *Service) Accept(ctx context.Context, counterpartyID snowflake.ID) (*connectiondomain.Relationship, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, connectiondomain.ErrInvalidAccount
	}

	current, err := s.remote.GetConnection(ctx, accountID, counterpartyID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Status != connectiondomain.StatusPending {
		return nil, connectiondomain.ErrNotFound
	}
	if current.InitiatorID == accountID {
		// Only the recipient may accept.
		return nil, connectiondomain.ErrNotAuthorized
	}

	if err := s.remote.UpdateStatus(ctx, current.ConnectionID, connectiondomain.StatusAccepted); err != nil {
		return nil, err
	}
	return s.reconcile(ctx, accountID, counterpartyID)
}

func (s *Service) Decline(ctx context.Context, counterpartyID snowflake.ID) error {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return connectiondomain.ErrInvalidAccount
	}

	current, err := s.remote.GetConnection(ctx, accountID, counterpartyID)
	if err != nil {
		return err
	}
	if current == nil || current.Status != connectiondomain.StatusPending {
		return connectiondomain.ErrNotFound
	}

	// Either party may decline a pending request.
	if err := s.remote.UpdateStatus(ctx, current.ConnectionID, connectiondomain.StatusDeclined); err != nil {
		return err
	}
	_, err = s.reconcile(ctx, accountID, counterpartyID)
	return err
}

func (s *Service) Disconnect(ctx context.Context, counterpartyID snowflake.ID) error {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return connectiondomain.ErrInvalidAccount
	}

	current, err := s.remote.GetConnection(ctx, accountID, counterpartyID)
	if err != nil {
		return err
	}
	if current == nil || current.Status != connectiondomain.StatusAccepted {
		return connectiondomain.ErrNotFound
	}

	if err := s.remote.DeleteConnection(ctx, current.ConnectionID); err != nil {
		return err
	}
	_, err = s.reconcile(ctx, accountID, counterpartyID)
	return err
}

func (s *Service) CloseDeal(ctx context.Context, counterpartyID snowflake.ID) (*connectiondomain.Relationship, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, connectiondomain.ErrInvalidAccount
	}

	current, err := s.remote.GetConnection(ctx, accountID, counterpartyID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Status != connectiondomain.StatusAccepted {
		return nil, connectiondomain.ErrNotFound
	}
	if current.DealClosed {
		// Closing an already-closed deal is a no-op success.
		return s.reconcile(ctx, accountID, counterpartyID)
	}

	if err := s.remote.MarkDealClosed(ctx, current.ConnectionID); err != nil {
		return nil, err
	}
	return s.reconcile(ctx, accountID, counterpartyID)
}

// reconcile refreshes the local cache from the authoritative store and
// returns the confirmed relationship. This is the only path that writes the
// cache.
func (s *Service) reconcile(ctx context.Context, accountID, counterpartyID snowflake.ID) (*connectiondomain.Relationship, error) {
	current, err := s.remote.GetConnection(ctx, accountID, counterpartyID)
	if err != nil {
		return nil, err
	}

	if current == nil {
		if err := s.cache.Delete(ctx, s.db, accountID, counterpartyID); err != nil {
			s.log.Warn("cache delete failed", zap.Error(err))
		}
		return nil, nil
	}

	entry := &connectiondomain.CacheEntry{
		AccountID:      accountID,
		CounterpartyID: counterpartyID,
		ConnectionID:   current.ConnectionID,
		InitiatorID:    current.InitiatorID,
		Status:         current.Status,
		DealClosed:     current.DealClosed,
		UpdatedAt:      s.clock.Now(),
	}
	if err := s.cache.Upsert(ctx, s.db, entry); err != nil {
		s.log.Warn("cache upsert failed", zap.Error(err))
	}
	return current, nil
}
