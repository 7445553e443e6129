package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// TierEntry is the file-configurable shape of a subscription tier.
// Quota values are counts per billing period; -1 means unbounded.
type TierEntry struct {
	ID           string   `mapstructure:"id"`
	Role         string   `mapstructure:"role"`
	Name         string   `mapstructure:"name"`
	ProfileViews int64    `mapstructure:"profileViews"`
	Contacts     int64    `mapstructure:"contacts"`
	Features     []string `mapstructure:"features"`
	BasePrice    int64    `mapstructure:"basePrice"`
	Popular      bool     `mapstructure:"popular"`
}

// RegionEntry configures display-price localization for one region.
type RegionEntry struct {
	Tag          string  `mapstructure:"tag"`
	Multiplier   float64 `mapstructure:"multiplier"`
	ExchangeRate float64 `mapstructure:"exchangeRate"`
	Symbol       string  `mapstructure:"symbol"`
}

// CatalogConfig is the static tier and region configuration table.
type CatalogConfig struct {
	Tiers   []TierEntry   `mapstructure:"tiers"`
	Regions []RegionEntry `mapstructure:"regions"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Tiers: []TierEntry{
			{ID: "explore", Role: "seeker", Name: "Explore", ProfileViews: 5, Contacts: 0, BasePrice: 0,
				Features: []string{"Browse investor profiles", "Basic search"}},
			{ID: "startup_growth", Role: "seeker", Name: "Growth", ProfileViews: -1, Contacts: 50, BasePrice: 2490, Popular: true,
				Features: []string{"Unlimited profile views", "Direct messaging", "Pitch deck hosting"}},
			{ID: "startup_scale", Role: "seeker", Name: "Scale", ProfileViews: -1, Contacts: -1, BasePrice: 4990,
				Features: []string{"Unlimited profile views", "Unlimited contacts", "Priority placement", "Valuation insights"}},
			{ID: "investor_free", Role: "provider", Name: "Scout", ProfileViews: 3, Contacts: 0, BasePrice: 0,
				Features: []string{"Browse startup profiles"}},
			{ID: "investor_basic", Role: "provider", Name: "Investor Basic", ProfileViews: 30, Contacts: 20, BasePrice: 1990, Popular: true,
				Features: []string{"Extended profile views", "Direct messaging", "Deal room access"}},
			{ID: "investor_pro", Role: "provider", Name: "Investor Pro", ProfileViews: -1, Contacts: -1, BasePrice: 5990,
				Features: []string{"Unlimited profile views", "Unlimited contacts", "Deal room access", "Portfolio analytics"}},
		},
		Regions: []RegionEntry{
			{Tag: "Global", Multiplier: 1.5, ExchangeRate: 83, Symbol: "$"},
			{Tag: "IN", Multiplier: 1, ExchangeRate: 1, Symbol: "₹"},
			{Tag: "EU", Multiplier: 1.4, ExchangeRate: 90, Symbol: "€"},
		},
	}
}

// CatalogHolder exposes the current catalog and hot-reloads it on file change.
type CatalogHolder struct {
	current atomic.Value // holds CatalogConfig
	version atomic.Uint64
}

func (h *CatalogHolder) store(cfg CatalogConfig) {
	h.current.Store(cfg)
	h.version.Add(1)
}

// Version increments on every successful reload. Consumers cache derived
// structures keyed by it.
func (h *CatalogHolder) Version() uint64 {
	return h.version.Load()
}

func NewCatalogHolder() (*CatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/venturebridge/config")
	v.AddConfigPath("/etc/venturebridge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VENTUREBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &CatalogHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.store(DefaultCatalogConfig())
		return holder, nil
	}

	var cfg CatalogConfig
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return nil, err
	}
	if err := validateCatalog(cfg); err != nil {
		return nil, err
	}
	holder.store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CatalogConfig
		if err := v.UnmarshalKey("catalog", &updated); err != nil {
			log.Printf("[catalog-config] reload failed: %v", err)
			return
		}
		if err := validateCatalog(updated); err != nil {
			log.Printf("[catalog-config] invalid config ignored: %v", err)
			return
		}
		holder.store(updated)
		log.Printf("[catalog-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CatalogHolder) Get() CatalogConfig {
	return h.current.Load().(CatalogConfig)
}

func validateCatalog(cfg CatalogConfig) error {
	if len(cfg.Tiers) == 0 {
		return errors.New("catalog requires at least one tier")
	}
	for _, t := range cfg.Tiers {
		if strings.TrimSpace(t.ID) == "" {
			return errors.New("tier id is required")
		}
		if t.ProfileViews < -1 || t.Contacts < -1 {
			return errors.New("quota values must be >= 0 or -1 for unbounded")
		}
		if t.BasePrice < 0 {
			return errors.New("base price must be >= 0")
		}
	}
	for _, r := range cfg.Regions {
		if strings.TrimSpace(r.Tag) == "" {
			return errors.New("region tag is required")
		}
		if r.ExchangeRate <= 0 {
			return errors.New("region exchange rate must be > 0")
		}
	}
	return nil
}
