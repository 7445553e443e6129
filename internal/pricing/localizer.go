// Package pricing converts base tier prices into display prices for a region.
package pricing

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/venturebridge/venturebridge/internal/config"
	"go.uber.org/fx"
)

const defaultRegion = "Global"

// Region configures display-price computation for one region tag.
type Region struct {
	Multiplier   float64
	ExchangeRate float64
	Symbol       string
}

// Price is a localized display price.
type Price struct {
	Symbol string `json:"symbol"`
	Value  string `json:"value"`
}

// Localizer maps region tags to their pricing configuration. Lookups read
// through the catalog holder, so region table reloads take effect on the
// next call.
type Localizer struct {
	holder *config.CatalogHolder
	snap   atomic.Pointer[regionSnapshot]
}

type regionSnapshot struct {
	version uint64
	regions map[string]Region
}

// NewLocalizer builds a static localizer from one catalog config. Used by
// tests and callers that do not need hot reload.
func NewLocalizer(cfg config.CatalogConfig) *Localizer {
	l := &Localizer{}
	l.snap.Store(buildRegions(cfg, 0))
	return l
}

// NewFromHolder builds a localizer that follows the holder's catalog across
// reloads.
func NewFromHolder(holder *config.CatalogHolder) *Localizer {
	l := &Localizer{holder: holder}
	l.snap.Store(buildRegions(holder.Get(), holder.Version()))
	return l
}

func buildRegions(cfg config.CatalogConfig, version uint64) *regionSnapshot {
	snap := &regionSnapshot{
		version: version,
		regions: make(map[string]Region, len(cfg.Regions)),
	}
	for _, entry := range cfg.Regions {
		snap.regions[strings.TrimSpace(entry.Tag)] = Region{
			Multiplier:   entry.Multiplier,
			ExchangeRate: entry.ExchangeRate,
			Symbol:       entry.Symbol,
		}
	}
	return snap
}

func (l *Localizer) load() *regionSnapshot {
	snap := l.snap.Load()
	if l.holder == nil {
		return snap
	}
	if v := l.holder.Version(); snap.version != v {
		snap = buildRegions(l.holder.Get(), v)
		l.snap.Store(snap)
	}
	return snap
}

// FormatPrice localizes base into the region's display price. Zero always
// renders as the literal "0" so free tiers carry no currency artifacts.
// Rounding is half away from zero at integer granularity.
func (l *Localizer) FormatPrice(base int64, regionTag string) Price {
	if base == 0 {
		return Price{Value: "0"}
	}

	snap := l.load()
	region, ok := snap.regions[strings.TrimSpace(regionTag)]
	if !ok {
		region, ok = snap.regions[defaultRegion]
		if !ok {
			region = Region{Multiplier: 1, ExchangeRate: 1}
		}
	}

	value := int64(math.Round(float64(base) * region.Multiplier / region.ExchangeRate))
	return Price{
		Symbol: region.Symbol,
		Value:  strconv.FormatInt(value, 10),
	}
}

var Module = fx.Module("pricing",
	fx.Provide(NewFromHolder),
)
