package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Check verifies that every migration under dir in fsys is named
// <14 digit version>_<snake_name>.sql, has a unique version and declares both
// goose sections.
func Check(fsys fs.FS, dir string) error {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no migrations under %q", dir)
	}
	sort.Strings(names)

	versions := make(map[string]string, len(names))
	for _, full := range names {
		base := path.Base(full)
		match := migrationName.FindStringSubmatch(base)
		if match == nil {
			return fmt.Errorf("migration %q: name must look like YYYYMMDDHHMMSS_name.sql", base)
		}
		if other, dup := versions[match[1]]; dup {
			return fmt.Errorf("migrations %q and %q share version %s", other, base, match[1])
		}
		versions[match[1]] = base

		body, err := fs.ReadFile(fsys, full)
		if err != nil {
			return fmt.Errorf("read %q: %w", base, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return fmt.Errorf("migration %q lacks %q", base, marker)
			}
		}
	}
	return nil
}
