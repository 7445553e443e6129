package config

import (
	"testing"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	if err := validateCatalog(DefaultCatalogConfig()); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestValidateCatalogRejectsBadConfigs(t *testing.T) {
	valid := DefaultCatalogConfig()

	cases := []struct {
		name   string
		mutate func(cfg *CatalogConfig)
	}{
		{"no tiers", func(cfg *CatalogConfig) { cfg.Tiers = nil }},
		{"blank tier id", func(cfg *CatalogConfig) { cfg.Tiers[0].ID = "  " }},
		{"quota below -1", func(cfg *CatalogConfig) { cfg.Tiers[0].ProfileViews = -2 }},
		{"negative price", func(cfg *CatalogConfig) { cfg.Tiers[0].BasePrice = -1 }},
		{"blank region tag", func(cfg *CatalogConfig) { cfg.Regions[0].Tag = "" }},
		{"zero exchange rate", func(cfg *CatalogConfig) { cfg.Regions[0].ExchangeRate = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			cfg.Tiers = append([]TierEntry(nil), valid.Tiers...)
			cfg.Regions = append([]RegionEntry(nil), valid.Regions...)
			tc.mutate(&cfg)
			if err := validateCatalog(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCatalogHolderVersionBumpsOnStore(t *testing.T) {
	holder := &CatalogHolder{}
	holder.store(DefaultCatalogConfig())

	v1 := holder.Version()
	if v1 == 0 {
		t.Fatal("expected non-zero version after first store")
	}

	updated := DefaultCatalogConfig()
	updated.Tiers = updated.Tiers[:1]
	holder.store(updated)

	if holder.Version() != v1+1 {
		t.Fatalf("expected version %d, got %d", v1+1, holder.Version())
	}
	if got := len(holder.Get().Tiers); got != 1 {
		t.Fatalf("expected latest catalog, got %d tiers", got)
	}
}
