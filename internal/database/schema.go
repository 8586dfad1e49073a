package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"sazon/internal/config"
	"sazon/internal/observability"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema steps ApplySchema will run for a given
// configuration and driver.
type SchemaPlan struct {
	Mode   string
	Env    string
	Driver string
	// SQL runs the embedded migrations, which carry the CHECK constraints,
	// partial unique indexes and foreign keys.
	SQL bool
	// Auto runs GORM AutoMigrate over PersistentModels.
	Auto bool
}

// SchemaStatus is a plan plus the migration history it would act on.
type SchemaStatus struct {
	SchemaPlan
	Applied []SchemaMigration
	Pending []Migration
}

var prodLikeEnvs = []string{"production", "prod", "staging", "stage"}

// PlanSchema resolves DB_SCHEMA_MODE for a driver. The SQL migrations are
// written for postgres, so sqlite is always built from the models. Production
// and staging never run AutoMigrate against postgres.
func PlanSchema(cfg *config.Config, driver string) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	plan := SchemaPlan{Mode: mode, Env: cfg.Env, Driver: driver}
	prodLike := slices.Contains(prodLikeEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch {
	case mode != SchemaModeHybrid && mode != SchemaModeSQL && mode != SchemaModeAuto:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	case driver == DriverSQLite:
		plan.Auto = true
	case mode == SchemaModeSQL:
		plan.SQL = true
	case mode == SchemaModeAuto:
		if prodLike {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		plan.Auto = true
	default:
		plan.SQL = true
		plan.Auto = !prodLike
	}
	return plan, nil
}

// AutoMigrate builds the schema from the GORM models. Tests use it directly.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs the steps PlanSchema selects: migrations first, then
// AutoMigrate for anything the models add on top.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg, db.Dialector.Name())
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.Auto {
		observability.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
			slog.String("mode", plan.Mode),
			slog.String("driver", plan.Driver),
			slog.String("env", plan.Env),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan and, when migrations would run, which are
// applied and which are pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg, db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	migs, err := Migrations()
	if err != nil {
		return nil, err
	}
	m := NewMigrator(db, migs)
	if status.Applied, err = m.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = m.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
