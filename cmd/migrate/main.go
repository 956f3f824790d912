package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/migration"
	"github.com/retailpos/backend/migrations"
	"go.uber.org/zap"
)

const usage = `Retail back-office migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  version               Show the applied version
  force <version>       Set the version without running migrations
  create <name> [desc]  Create a new migration file pair
  list                  List migrations on disk

Flags:
  -path string          Migrations directory (default: embedded set; ./migrations for create/list)
  -log-level string     Log level: debug, info, warn, error (default: info)

Database settings come from config.toml and RETAIL_DATABASE_* variables.
`

var errUsage = errors.New("bad arguments")

type options struct {
	dir  string
	args []string
	log  *zap.Logger
}

func (o options) filesDir() string {
	if o.dir == "" {
		return "migrations"
	}
	return o.dir
}

func (o options) intArg(what string) (int, error) {
	if len(o.args) < 2 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(o.args[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, o.args[1])
	}
	return n, nil
}

// Commands that only touch files on disk.
var fileCommands = map[string]func(options) error{
	"create": func(o options) error {
		if len(o.args) < 2 {
			return fmt.Errorf("%w: migration name required", errUsage)
		}
		desc := ""
		if len(o.args) > 2 {
			desc = o.args[2]
		}
		mig, err := migration.CreateMigration(o.filesDir(), o.args[1], desc)
		if err != nil {
			return err
		}
		o.log.Info("Migration created",
			zap.Uint("version", mig.Version),
			zap.String("up_file", mig.UpPath),
			zap.String("down_file", mig.DownPath),
		)
		return nil
	},
	"list": func(o options) error {
		list, err := migration.ListMigrations(o.filesDir())
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Printf("  %06d  %s\n", m.Version, m.Name)
		}
		return nil
	},
}

// Commands that run against the configured database.
var dbCommands = map[string]func(*migration.Migrator, options) error{
	"up":   func(m *migration.Migrator, _ options) error { return m.Up() },
	"down": func(m *migration.Migrator, _ options) error { return m.Down() },
	"step": func(m *migration.Migrator, o options) error {
		n, err := o.intArg("step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"force": func(m *migration.Migrator, o options) error {
		v, err := o.intArg("version")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, o options) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		o.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	dir := flag.String("path", "", "Read migrations from this directory instead of the embedded set")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := logger.ConfigFor("development")
	cfg.Level = *level
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	opts := options{dir: *dir, args: flag.Args(), log: log}
	command := opts.args[0]

	if err := run(command, opts); err != nil {
		if errors.Is(err, errUsage) {
			log.Error("Invalid invocation", zap.String("command", command), zap.Error(err))
			flag.Usage()
			os.Exit(2)
		}
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

func run(command string, o options) error {
	if fn, ok := fileCommands[command]; ok {
		return fn(o)
	}
	fn, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations need the postgres driver, got %q (sqlite schemas are auto-migrated)", cfg.Database.Driver)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	src := migration.FromFS(migrations.FS)
	if o.dir != "" {
		src = migration.FromDir(o.dir)
	}
	m, err := migration.New(db, src, o.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			o.log.Warn("Close migrator", zap.Error(cerr))
		}
	}()
	return fn(m, o)
}
