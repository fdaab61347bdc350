package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
	dialect     = "postgres"
)

//go:embed migrations/*.sql
var Embedded embed.FS

// Source locates a set of goose migrations. A nil FS means the local disk.
type Source struct {
	FS  fs.FS
	Dir string
}

// DiskSource reads migrations from dir on the local filesystem.
func DiskSource(dir string) Source { return Source{Dir: dir} }

// EmbeddedSource reads the migrations compiled into the binary.
func EmbeddedSource() Source { return Source{FS: Embedded, Dir: embeddedDir} }

func (s Source) String() string {
	if s.FS != nil {
		return "embedded:" + s.Dir
	}
	return s.Dir
}

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

func withGoose(src Source, fn func() error) error {
	if src.Dir == "" {
		return fmt.Errorf("migration dir is required")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)
	return fn()
}

// Run executes a goose command (up, down, status, ...) against db.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	return withGoose(src, func() error {
		if err := goose.RunContext(ctx, command, db, src.Dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// ToVersion moves the schema up or down until it sits at target
// (YYYYMMDDHHMMSS).
func ToVersion(ctx context.Context, db *sql.DB, src Source, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || len(target) != 14 {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", target)
	}
	if db == nil {
		return fmt.Errorf("db is required")
	}
	return withGoose(src, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read db version: %w", err)
		}
		switch {
		case current < version:
			err = goose.UpToContext(ctx, db, src.Dir, version)
		case current > version:
			err = goose.DownToContext(ctx, db, src.Dir, version)
		}
		if err != nil {
			return fmt.Errorf("migrate %d -> %d: %w", current, version, err)
		}
		return nil
	})
}
