package migration

import (
	"context"

	authdomain "github.com/smallbiznis/invoicer/internal/auth/domain"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, auth authdomain.Service, log *zap.Logger) error {
		if err := Run(conn, cfg.DBType); err != nil {
			return err
		}
		return seed.EnsureAdmin(context.Background(), auth, cfg, log)
	}),
)
