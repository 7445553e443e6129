// Package tier holds the subscription tier catalog: quotas, feature flags and
// base prices per tier. Lookups read through the catalog holder, so a hot
// reload of the catalog file takes effect on the next call.
package tier

import (
	"strings"
	"sync/atomic"

	"github.com/venturebridge/venturebridge/internal/config"
	"go.uber.org/fx"
)

// ID identifies a subscription tier.
type ID string

// Role is the account family a tier belongs to.
type Role string

const (
	RoleProvider Role = "provider"
	RoleSeeker   Role = "seeker"
	RoleOperator Role = "operator"
)

// Metric names a metered quota.
type Metric string

const (
	MetricProfileViews Metric = "profile_views"
	MetricContacts     Metric = "contacts"
)

// Quotas holds the per-metric ceilings of a tier.
type Quotas struct {
	ProfileViews Count
	Contacts     Count
}

// Definition describes one subscription tier. Immutable.
type Definition struct {
	ID        ID
	Role      Role
	Name      string
	Quotas    Quotas
	Features  []string
	BasePrice int64
	Popular   bool
}

// Registry is the tier catalog. Lookups never fail: an unknown tier falls
// back to the lowest free tier of the requested role family.
type Registry struct {
	holder *config.CatalogHolder
	snap   atomic.Pointer[catalogSnapshot]
}

type catalogSnapshot struct {
	version  uint64
	tiers    map[ID]Definition
	fallback map[Role]ID
}

// NewRegistry builds a static registry from one catalog config. Used by
// tests and callers that do not need hot reload.
func NewRegistry(cfg config.CatalogConfig) *Registry {
	r := &Registry{}
	r.snap.Store(buildSnapshot(cfg, 0))
	return r
}

// NewFromHolder builds a registry that follows the holder's catalog across
// reloads.
func NewFromHolder(holder *config.CatalogHolder) *Registry {
	r := &Registry{holder: holder}
	r.snap.Store(buildSnapshot(holder.Get(), holder.Version()))
	return r
}

func buildSnapshot(cfg config.CatalogConfig, version uint64) *catalogSnapshot {
	snap := &catalogSnapshot{
		version:  version,
		tiers:    make(map[ID]Definition, len(cfg.Tiers)),
		fallback: make(map[Role]ID),
	}
	for _, entry := range cfg.Tiers {
		def := Definition{
			ID:   ID(strings.TrimSpace(entry.ID)),
			Role: Role(strings.TrimSpace(entry.Role)),
			Name: entry.Name,
			Quotas: Quotas{
				ProfileViews: CountOf(entry.ProfileViews),
				Contacts:     CountOf(entry.Contacts),
			},
			Features:  entry.Features,
			BasePrice: entry.BasePrice,
			Popular:   entry.Popular,
		}
		snap.tiers[def.ID] = def

		// First zero-priced tier per role family is the fallback.
		if def.BasePrice == 0 {
			if _, ok := snap.fallback[def.Role]; !ok {
				snap.fallback[def.Role] = def.ID
			}
		}
	}
	return snap
}

func (r *Registry) load() *catalogSnapshot {
	snap := r.snap.Load()
	if r.holder == nil {
		return snap
	}
	if v := r.holder.Version(); snap.version != v {
		snap = buildSnapshot(r.holder.Get(), v)
		r.snap.Store(snap)
	}
	return snap
}

// Get returns the definition for id, falling back to the lowest free tier of
// the given role family when the id is unknown.
func (r *Registry) Get(id ID, role Role) Definition {
	snap := r.load()
	if def, ok := snap.tiers[id]; ok {
		return def
	}
	if fallbackID, ok := snap.fallback[role]; ok {
		return snap.tiers[fallbackID]
	}
	// No free tier configured for the family; return a fully locked definition.
	return Definition{ID: id, Role: role, Quotas: Quotas{ProfileViews: CountOf(0), Contacts: CountOf(0)}}
}

// Quota returns the ceiling for one metric of a tier.
func (r *Registry) Quota(id ID, role Role, metric Metric) Count {
	def := r.Get(id, role)
	switch metric {
	case MetricProfileViews:
		return def.Quotas.ProfileViews
	case MetricContacts:
		return def.Quotas.Contacts
	default:
		return CountOf(0)
	}
}

// HasFeature reports whether any feature description of the tier contains
// substr, case-insensitively. Feature copy doubles as a flag on purpose so UI
// strings stay the single source of truth.
func (r *Registry) HasFeature(id ID, role Role, substr string) bool {
	needle := strings.ToLower(strings.TrimSpace(substr))
	if needle == "" {
		return false
	}
	for _, feature := range r.Get(id, role).Features {
		if strings.Contains(strings.ToLower(feature), needle) {
			return true
		}
	}
	return false
}

// List returns every tier in the catalog for one role family.
func (r *Registry) List(role Role) []Definition {
	snap := r.load()
	out := make([]Definition, 0, len(snap.tiers))
	for _, def := range snap.tiers {
		if def.Role == role {
			out = append(out, def)
		}
	}
	return out
}

var Module = fx.Module("tier.registry",
	fx.Provide(NewFromHolder),
)
