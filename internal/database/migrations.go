package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"sazon/internal/observability"

	"gorm.io/gorm"
)

// Migration is a numbered pair of SQL scripts, <version>_<name>.up.sql and
// <version>_<name>.down.sql. The scripts target postgres.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the migrations compiled into the binary, ordered by version.
var Migrations = sync.OnceValues(func() ([]Migration, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	return LoadMigrations(sub)
})

// LoadMigrations reads every up/down pair at the root of fsys. A badly named
// file, a missing down script or a repeated version is an error.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(ups))
	seen := make(map[int]string, len(ups))
	for _, file := range ups {
		base := strings.TrimSuffix(path.Base(file), ".up.sql")
		rawVersion, name, ok := strings.Cut(base, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("migration %q: want <version>_<name>.up.sql", file)
		}
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version < 1 {
			return nil, fmt.Errorf("migration %q: version must be a positive number", file)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by both %q and %q", version, prev, file)
		}
		seen[version] = file

		up, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(path.Dir(file), base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %q has no down script: %w", base, err)
		}

		sum := sha256.Sum256(up)
		out = append(out, Migration{
			Version:  version,
			Name:     name,
			Up:       string(up),
			Down:     string(down),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// SchemaMigration records one applied migration.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigration) TableName() string { return "schema_migrations" }

// Migrator applies and reverts a fixed set of migrations against one database.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Applied lists recorded migrations in version order. A database that was
// never migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]SchemaMigration, error) {
	if !m.db.WithContext(ctx).Migrator().HasTable(&SchemaMigration{}) {
		return nil, nil
	}
	var rows []SchemaMigration
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return rows, nil
}

// Pending returns the known migrations not yet applied, after checking that
// the recorded history still matches the code.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkHistory(applied, m.migrations); err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration, each in its own transaction together
// with its history row. It returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		observability.Logger.InfoContext(ctx, "Applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   mig.Version,
				Name:      mig.Name,
				Checksum:  mig.Checksum,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply migration %s: %w", mig, err)
		}
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var mig *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			mig = &m.migrations[i]
			break
		}
	}
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(applied, func(a SchemaMigration) bool { return a.Version == version }) {
		return fmt.Errorf("migration %s has not been applied", mig)
	}

	observability.Logger.InfoContext(ctx, "Rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", mig, err)
		}
		return tx.Delete(&SchemaMigration{}, "version = ?", version).Error
	})
}

// checkHistory rejects a history that names versions the code does not know
// or whose scripts were edited after they ran.
func checkHistory(applied []SchemaMigration, known []Migration) error {
	byVersion := make(map[int]Migration, len(known))
	for _, k := range known {
		byVersion[k.Version] = k
	}

	var unknown, edited []string
	for _, a := range applied {
		k, ok := byVersion[a.Version]
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d", a.Version))
		case a.Checksum != "" && a.Checksum != k.Checksum:
			edited = append(edited, k.String())
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("schema_migrations contains versions not present in code: %s", strings.Join(unknown, ", "))
	}
	if len(edited) > 0 {
		return fmt.Errorf("migrations changed after being applied: %s", strings.Join(edited, ", "))
	}
	return nil
}

// RunMigrations applies the embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	migs, err := Migrations()
	if err != nil {
		return err
	}
	_, err = NewMigrator(db, migs).Up(ctx)
	return err
}

// RollbackMigration reverts one embedded migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	migs, err := Migrations()
	if err != nil {
		return err
	}
	return NewMigrator(db, migs).Down(ctx, version)
}
