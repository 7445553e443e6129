package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/venturebridge/venturebridge/internal/accountctx"
	"github.com/venturebridge/venturebridge/internal/clock"
	"github.com/venturebridge/venturebridge/internal/config"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"github.com/venturebridge/venturebridge/internal/subscription/repository"
	"github.com/venturebridge/venturebridge/internal/tier"
)

func setupSubscriptionService(t *testing.T) subscriptiondomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&subscriptiondomain.AccountSubscription{}))

	return New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Registry: tier.NewRegistry(config.DefaultCatalogConfig()),
		Repo:     repository.Provide(),
	})
}

func subscriptionContext(id int64) context.Context {
	return accountctx.WithAccountID(context.Background(), snowflake.ID(id))
}

func TestGetFallsBackToFreeSeekerTier(t *testing.T) {
	svc := setupSubscriptionService(t)

	snapshot, err := svc.Get(subscriptionContext(1))
	require.NoError(t, err)
	assert.Equal(t, tier.RoleSeeker, snapshot.Role)
	assert.Equal(t, tier.ID("explore"), snapshot.TierID)
	assert.Equal(t, "Global", snapshot.Region)
}

func TestRegisterAssignsFreeTierForRole(t *testing.T) {
	svc := setupSubscriptionService(t)
	ctx := subscriptionContext(1)

	snapshot, err := svc.Register(ctx, tier.RoleProvider)
	require.NoError(t, err)
	assert.Equal(t, tier.ID("investor_free"), snapshot.TierID)

	snapshot, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, tier.RoleProvider, snapshot.Role)
	assert.Equal(t, tier.ID("investor_free"), snapshot.TierID)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := setupSubscriptionService(t)

	_, err := svc.Register(subscriptionContext(1), tier.Role("alien"))
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidRole)
}

func TestSetTierWithinRoleFamily(t *testing.T) {
	svc := setupSubscriptionService(t)
	ctx := subscriptionContext(1)

	_, err := svc.Register(ctx, tier.RoleSeeker)
	require.NoError(t, err)

	snapshot, err := svc.SetTier(ctx, subscriptiondomain.SetTierRequest{TierID: "startup_growth"})
	require.NoError(t, err)
	assert.Equal(t, tier.ID("startup_growth"), snapshot.TierID)

	// A provider tier is out of the seeker family.
	_, err = svc.SetTier(ctx, subscriptiondomain.SetTierRequest{TierID: "investor_pro"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidTier)

	_, err = svc.SetTier(ctx, subscriptiondomain.SetTierRequest{TierID: "no_such_tier"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidTier)
}

func TestSetTierRequiresRegistration(t *testing.T) {
	svc := setupSubscriptionService(t)

	_, err := svc.SetTier(subscriptionContext(1), subscriptiondomain.SetTierRequest{TierID: "startup_growth"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidAccount)
}

func TestSetRegion(t *testing.T) {
	svc := setupSubscriptionService(t)
	ctx := subscriptionContext(1)

	_, err := svc.Register(ctx, tier.RoleSeeker)
	require.NoError(t, err)

	snapshot, err := svc.SetRegion(ctx, subscriptiondomain.SetRegionRequest{Region: "IN"})
	require.NoError(t, err)
	assert.Equal(t, "IN", snapshot.Region)

	_, err = svc.SetRegion(ctx, subscriptiondomain.SetRegionRequest{Region: "  "})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidRegion)
}

func TestSetMetadataRoundTrips(t *testing.T) {
	svc := setupSubscriptionService(t)
	ctx := subscriptionContext(1)

	_, err := svc.Register(ctx, tier.RoleSeeker)
	require.NoError(t, err)

	snapshot, err := svc.SetMetadata(ctx, map[string]any{"source": "referral"})
	require.NoError(t, err)
	assert.Equal(t, "referral", snapshot.Metadata["source"])

	snapshot, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "referral", snapshot.Metadata["source"])
}

func TestMissingAccountContext(t *testing.T) {
	svc := setupSubscriptionService(t)

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidAccount)

	_, err = svc.Register(context.Background(), tier.RoleSeeker)
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidAccount)
}
