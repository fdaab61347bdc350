package migrate

import (
	"context"
	"fmt"

	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/db"
	"github.com/shiplogix/logistics-backend/pkg/logger"
)

// MaybeRunDev brings the schema up on boot when running in dev with
// auto-migrate enabled. sqlite is built from the gorm models since the SQL
// files use Postgres enums.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "migrate.sqlite_automigrate")
		return client.AutoMigrate(ctx)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	src := EmbeddedSource()
	ctx = logg.WithField(ctx, "source", src.String())
	logg.Info(ctx, "migrate.dev_up_started")
	if err := Run(ctx, sqlDB, src, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_up_completed")
	return nil
}
