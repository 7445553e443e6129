package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	"github.com/venturebridge/venturebridge/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Store is the gorm-backed authoritative connection store. It implements
// connectiondomain.RemoteService for in-process deployments and backs the
// HTTP API for everyone else. It enforces storage-level rules only (pair
// uniqueness, self targeting, handle existence); actor authorization is the
// caller's concern.
type Store struct {
	db    *gorm.DB
	genID *snowflake.Node
}

type Params struct {
	fx.In

	DB    *gorm.DB
	GenID *snowflake.Node
}

func NewStore(p Params) *Store {
	return &Store{db: p.DB, genID: p.GenID}
}

func (s *Store) CreateConnection(ctx context.Context, initiator, recipient snowflake.ID) (snowflake.ID, error) {
	if initiator == recipient {
		return 0, connectiondomain.ErrSelfTarget
	}
	if initiator == 0 || recipient == 0 {
		return 0, connectiondomain.ErrInvalidAccount
	}

	conn := &connectiondomain.Connection{
		ID:          s.genID.Generate(),
		PairKey:     connectiondomain.PairKey(initiator, recipient),
		InitiatorID: initiator,
		RecipientID: recipient,
		Status:      connectiondomain.StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(conn).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return 0, connectiondomain.ErrAlreadyExists
		}
		return 0, err
	}
	return conn.ID, nil
}

func (s *Store) GetConnection(ctx context.Context, a, b snowflake.ID) (*connectiondomain.Relationship, error) {
	var conn connectiondomain.Connection
	err := s.db.WithContext(ctx).
		Where("pair_key = ?", connectiondomain.PairKey(a, b)).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toRelationship(&conn), nil
}

// UpdateStatus arbitrates transition legality: accept and decline apply only
// to a pending row, disconnect only to an accepted one. Anything else reports
// ErrNotFound, the same answer a concurrent loser gets.
func (s *Store) UpdateStatus(ctx context.Context, id snowflake.ID, status connectiondomain.Status) error {
	switch status {
	case connectiondomain.StatusAccepted:
		result := s.db.WithContext(ctx).
			Model(&connectiondomain.Connection{}).
			Where("id = ? AND status = ?", id, connectiondomain.StatusPending).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return connectiondomain.ErrNotFound
		}
		return nil
	case connectiondomain.StatusDeclined:
		// Declining invalidates the handle entirely so the pair returns to
		// none and a fresh request is possible immediately.
		return s.deleteWithStatus(ctx, id, connectiondomain.StatusPending)
	case connectiondomain.StatusDisconnected, connectiondomain.StatusNone:
		return s.deleteWithStatus(ctx, id, connectiondomain.StatusAccepted)
	default:
		return connectiondomain.ErrNotFound
	}
}

func (s *Store) deleteWithStatus(ctx context.Context, id snowflake.ID, expected connectiondomain.Status) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, expected).
		Delete(&connectiondomain.Connection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connectiondomain.ErrNotFound
	}
	return nil
}

func (s *Store) MarkDealClosed(ctx context.Context, id snowflake.ID) error {
	result := s.db.WithContext(ctx).
		Model(&connectiondomain.Connection{}).
		Where("id = ? AND status = ?", id, connectiondomain.StatusAccepted).
		Update("deal_closed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the handle is gone or the connection is not accepted;
		// distinguish the idempotent already-closed case.
		var conn connectiondomain.Connection
		err := s.db.WithContext(ctx).Where("id = ?", id).First(&conn).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return connectiondomain.ErrNotFound
			}
			return err
		}
		if conn.Status == connectiondomain.StatusAccepted && conn.DealClosed {
			return nil
		}
		return connectiondomain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteConnection(ctx context.Context, id snowflake.ID) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&connectiondomain.Connection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connectiondomain.ErrNotFound
	}
	return nil
}

// FindByID returns the raw connection row; used by the HTTP handlers for
// actor authorization before a transition.
func (s *Store) FindByID(ctx context.Context, id snowflake.ID) (*connectiondomain.Connection, error) {
	var conn connectiondomain.Connection
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connectiondomain.ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

func toRelationship(conn *connectiondomain.Connection) *connectiondomain.Relationship {
	return &connectiondomain.Relationship{
		ConnectionID: conn.ID,
		InitiatorID:  conn.InitiatorID,
		RecipientID:  conn.RecipientID,
		Status:       conn.Status,
		DealClosed:   conn.DealClosed,
	}
}
