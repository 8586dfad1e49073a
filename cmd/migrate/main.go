// Command migrate runs schema operations against the configured database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"sazon/internal/config"
	"sazon/internal/database"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: go run ./cmd/migrate [-timeout 2m] <up|auto|status|down> [version]")

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	timeout := flag.Duration("timeout", 2*time.Minute, "Abort the operation after this long")
	flag.Parse()
	if flag.NArg() < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		// sqlite has no SQL migrations and is always built from the models.
		cfg.DBSchemaMode = database.SchemaModeSQL
		return applyMode(ctx, db, cfg)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		return applyMode(ctx, db, cfg)
	case "status":
		return status(ctx, db, cfg)
	case "down":
		if flag.NArg() < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %06d", version)
		return nil
	}
	return errUsage
}

func applyMode(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("schema %s failed: %w", cfg.DBSchemaMode, err)
	}
	log.Printf("schema %s complete on %s", cfg.DBSchemaMode, db.Dialector.Name())
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("mode=%s env=%s driver=%s sql=%t auto=%t applied=%d pending=%d",
		st.Mode, st.Env, st.Driver, st.SQL, st.Auto, len(st.Applied), len(st.Pending))
	for _, a := range st.Applied {
		log.Printf("applied: %06d_%s at %s", a.Version, a.Name, a.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range st.Pending {
		log.Printf("pending: %s", m)
	}
	return nil
}
