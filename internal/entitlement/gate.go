// Package entitlement composes the tier registry, usage ledger and
// relationship lifecycle into the single answer UI code needs: can this
// account do X now, and if so, do it and record it.
package entitlement

import (
	"context"
	"errors"

	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	"github.com/venturebridge/venturebridge/internal/entity"
	obsmetrics "github.com/venturebridge/venturebridge/internal/observability/metrics"
	"github.com/venturebridge/venturebridge/internal/tier"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrQuotaExceeded signals that a permission check denied the action. Callers
// route it to an upgrade prompt rather than an error state.
var ErrQuotaExceeded = errors.New("quota_exceeded")

type Params struct {
	fx.In

	Log     *zap.Logger
	Usage   usagedomain.Service
	ConnSvc connectiondomain.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Gate struct {
	log     *zap.Logger
	usage   usagedomain.Service
	conn    connectiondomain.Service
	metrics *obsmetrics.Metrics
}

func New(p Params) *Gate {
	return &Gate{
		log:     p.Log.Named("entitlement.gate"),
		usage:   p.Usage,
		conn:    p.ConnSvc,
		metrics: p.Metrics,
	}
}

// OpenProfile gates a profile detail open. Ordering is check then record: an
// entity is only counted once the open is actually permitted, and re-opens of
// an already-counted entity never re-count.
func (g *Gate) OpenProfile(ctx context.Context, target entity.Entity) error {
	if !g.usage.CanViewProfile(ctx, target.EntityID()) {
		g.metrics.RecordQuotaDecision(string(tier.MetricProfileViews), "denied")
		return ErrQuotaExceeded
	}
	g.metrics.RecordQuotaDecision(string(tier.MetricProfileViews), "permitted")
	return g.usage.TrackView(ctx, target.EntityID())
}

// RequestConnection gates and performs an outbound connection request.
// Ordering is check, act, record: the contact is only counted after the
// remote mutation succeeded, so failed requests never consume quota.
func (g *Gate) RequestConnection(ctx context.Context, target entity.Entity) (*connectiondomain.Relationship, error) {
	if !g.usage.CanContact(ctx, target.EntityID()) {
		g.metrics.RecordQuotaDecision(string(tier.MetricContacts), "denied")
		return nil, ErrQuotaExceeded
	}
	g.metrics.RecordQuotaDecision(string(tier.MetricContacts), "permitted")

	relationship, err := g.conn.SendRequest(ctx, target.EntityID())
	if err != nil {
		return nil, err
	}

	if err := g.usage.TrackContact(ctx, target.EntityID()); err != nil {
		// The request went through; a failed count must not report failure
		// upward or the UI would contradict the server.
		g.log.Warn("contact tracking failed after successful request", zap.Error(err))
	}
	return relationship, nil
}

var Module = fx.Module("entitlement.gate",
	fx.Provide(New),
)
