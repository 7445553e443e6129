package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/venturebridge/venturebridge/internal/clock"
	"github.com/venturebridge/venturebridge/internal/config"
	"github.com/venturebridge/venturebridge/internal/connection"
	"github.com/venturebridge/venturebridge/internal/entitlement"
	"github.com/venturebridge/venturebridge/internal/logger"
	"github.com/venturebridge/venturebridge/internal/migration"
	"github.com/venturebridge/venturebridge/internal/observability"
	"github.com/venturebridge/venturebridge/internal/pricing"
	"github.com/venturebridge/venturebridge/internal/ratelimit"
	"github.com/venturebridge/venturebridge/internal/server"
	"github.com/venturebridge/venturebridge/internal/session"
	"github.com/venturebridge/venturebridge/internal/subscription"
	"github.com/venturebridge/venturebridge/internal/tier"
	"github.com/venturebridge/venturebridge/internal/usage"
	"github.com/venturebridge/venturebridge/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Functional domains
		tier.Module,
		pricing.Module,
		subscription.Module,
		usage.Module,
		connection.Module,
		entitlement.Module,
		session.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
