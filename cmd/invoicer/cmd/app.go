package cmd

import (
	"os"

	"github.com/smallbiznis/invoicer/internal/auth"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/migration"
	"github.com/smallbiznis/invoicer/internal/observability"
	"github.com/smallbiznis/invoicer/internal/server"
	"github.com/smallbiznis/invoicer/pkg/db"
	"go.uber.org/fx"
)

func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflake),
		db.Module,
		clock.Module,
	)
}

func serveApp() *fx.App {
	return fx.New(
		coreModules(),
		server.Module,
		migration.Module,
	)
}

func migrateApp() *fx.App {
	return fx.New(
		coreModules(),
		auth.Module,
		migration.Module,
	)
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "0.1.0"
}
