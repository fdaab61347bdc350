package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/db"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	"github.com/shiplogix/logistics-backend/pkg/migrate"
)

type options struct {
	dir      string
	embedded bool
	name     string
	version  string
}

func (o options) source() migrate.Source {
	if o.embedded {
		return migrate.EmbeddedSource()
	}
	return migrate.DiskSource(o.dir)
}

// offline commands never open a database connection.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return fmt.Errorf("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err == nil {
			fmt.Println("created", path)
		}
		return err
	},
	"validate": func(o options) error {
		if err := migrate.Validate(o.source()); err != nil {
			return err
		}
		fmt.Println("migrations valid:", o.source())
		return nil
	},
}

var online = map[string]func(context.Context, *sql.DB, options) error{
	"up":     goose("up"),
	"down":   goose("down"),
	"status": goose("status"),
	"version": func(ctx context.Context, conn *sql.DB, o options) error {
		if o.version == "" {
			return fmt.Errorf("-version is required for version")
		}
		return migrate.ToVersion(ctx, conn, o.source(), o.version)
	},
}

func goose(command string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, conn *sql.DB, o options) error {
		return migrate.Run(ctx, conn, o.source(), command)
	}
}

func main() {
	var opts options
	cmd := flag.String("cmd", "up", "migration command: "+strings.Join(commandNames(), "|"))
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into this binary instead of -dir")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	if run, ok := offline[*cmd]; ok {
		exitOn(context.Background(), logg, *cmd, run(opts))
		return
	}
	run, ok := online[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q (want %s)\n", *cmd, strings.Join(commandNames(), "|"))
		os.Exit(2)
	}

	cfg, err := config.Load()
	exitOn(context.Background(), logg, "load config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"source": opts.source().String(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()

	conn, err := dbClient.DB().DB()
	exitOn(ctx, logg, "open sql handle", err)

	logg.Info(ctx, "migrate.started")
	exitOn(ctx, logg, *cmd, run(ctx, conn, opts))
	logg.Info(ctx, "migrate.completed")
}

func commandNames() []string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "migrate."+strings.ReplaceAll(step, " ", "_")+"_failed", err)
	os.Exit(1)
}
