package store

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// queries holds the named statements, already rebound for the driver.
type queries struct {
	byName map[string]string
}

func loadQueries(db *sqlx.DB) (*queries, error) {
	var combined strings.Builder
	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		combined.Write(content)
		combined.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	q := &queries{byName: make(map[string]string)}
	for name, query := range dot.QueryMap() {
		q.byName[name] = db.Rebind(query)
	}
	return q, nil
}

// get returns the named query. Names are compile-time constants, so a miss
// is a programming error.
func (q *queries) get(name string) string {
	query, ok := q.byName[name]
	if !ok {
		panic("store: unknown query " + name)
	}
	return query
}
