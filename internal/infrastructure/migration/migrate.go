package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Source is either an fs.FS (the embedded set) or a directory on disk.
type Source struct {
	fsys fs.FS
	dir  string
}

func FromFS(fsys fs.FS) Source { return Source{fsys: fsys} }

func FromDir(dir string) Source { return Source{dir: dir} }

func (s Source) String() string {
	if s.fsys != nil {
		return "embedded"
	}
	return s.dir
}

func (s Source) open(driver database.Driver) (*migrate.Migrate, error) {
	if s.fsys == nil {
		return migrate.NewWithDatabaseInstance("file://"+s.dir, "postgres", driver)
	}
	files, err := iofs.New(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	return migrate.NewWithInstance("iofs", files, "postgres", driver)
}

// Migrator runs the versioned SQL schema against postgres.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

func New(db *sql.DB, src Source, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migrate driver: %w", err)
	}
	m, err := src.open(driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations from %s: %w", src, err)
	}
	return &Migrator{m: m, log: logger.With(zap.String("source", src.String()))}, nil
}

// apply runs step and treats migrate.ErrNoChange as success.
func (mg *Migrator) apply(op string, step func() error) error {
	err := step()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("Nothing to migrate", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.log.Info("Migrated", zap.String("op", op), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (mg *Migrator) Up() error { return mg.apply("up", mg.m.Up) }

func (mg *Migrator) Down() error { return mg.apply("down", mg.m.Down) }

// Steps moves n versions forward, or back when n is negative.
func (mg *Migrator) Steps(n int) error {
	return mg.apply(fmt.Sprintf("steps(%d)", n), func() error { return mg.m.Steps(n) })
}

// Version reports 0 for a database that has never been migrated.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// Force rewrites the recorded version without running SQL. Used to clear a
// dirty flag after a failed migration was repaired by hand.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
