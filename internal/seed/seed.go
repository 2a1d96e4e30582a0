package seed

import (
	"context"
	"strings"

	authdomain "github.com/smallbiznis/invoicer/internal/auth/domain"
	"github.com/smallbiznis/invoicer/internal/config"
	"go.uber.org/zap"
)

// EnsureAdmin creates the configured admin account, or rotates its password
// when ADMIN_PASSWORD changed. Nothing is seeded unless both the email and
// the password are set.
func EnsureAdmin(ctx context.Context, auth authdomain.Service, cfg config.Config, log *zap.Logger) error {
	log = log.Named("seed")

	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		log.Warn("admin credentials not configured, skipping admin seed")
		return nil
	}

	user, err := auth.EnsureUser(ctx, email, cfg.AdminPassword)
	if err != nil {
		return err
	}
	log.Info("admin user ensured", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return nil
}
