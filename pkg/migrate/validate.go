package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredAnnotations = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks the migrations under dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return Validate(Source{FS: os.DirFS(dir), Dir: "."})
}

// Validate reports every malformed file in src rather than stopping at the
// first: names must be YYYYMMDDHHMMSS_snake.sql, versions unique, and each
// file must carry both goose sections.
func Validate(src Source) error {
	fsys := src.FS
	if fsys == nil {
		fsys = os.DirFS(".")
	}
	entries, err := fs.ReadDir(fsys, src.Dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	var problems error
	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if first, dup := versions[match[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, match[1], first))
		} else {
			versions[match[1]] = name
		}

		body, err := fs.ReadFile(fsys, path.Join(src.Dir, name))
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		for _, annotation := range requiredAnnotations {
			if !strings.Contains(string(body), annotation) {
				problems = multierr.Append(problems, fmt.Errorf("%s: missing %q", name, annotation))
			}
		}
	}
	return problems
}
