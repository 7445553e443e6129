package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/venturebridge/venturebridge/internal/config"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql and sqlite deployments lean on gorm's schema sync; the
			// versioned SQL is written for postgres.
			return conn.AutoMigrate(
				&subscriptiondomain.AccountSubscription{},
				&usagedomain.Record{},
				&connectiondomain.Connection{},
				&connectiondomain.CacheEntry{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
