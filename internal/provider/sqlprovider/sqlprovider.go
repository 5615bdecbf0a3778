// Package sqlprovider expands placeholders from the rows of a SQLite query.
package sqlprovider

import (
	"context"
	"database/sql"
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/provider"
)

// RecordColumn, when present and holding a JSON object, is merged into
// the row's template values.
const RecordColumn = "record"

// Config describes one SQL-backed provider.
type Config struct {
	Name  string `toml:"name"`
	DSN   string `toml:"dsn"`
	Query string `toml:"query"`
	provider.NodeTemplate
}

// Provider runs its query on every expansion and yields one node per row.
type Provider struct {
	name   string
	query  string
	db     *sql.DB
	render *provider.Renderer
}

// New opens the database and compiles the node template.
func New(cfg Config) (*Provider, error) {
	if cfg.Query == "" {
		return nil, errors.Newf("sql provider %q: empty query", cfg.Name)
	}
	r, err := cfg.NodeTemplate.Compile()
	if err != nil {
		return nil, errors.Wrapf(err, "sql provider %q", cfg.Name)
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", cfg.DSN)
	}
	return &Provider{name: cfg.Name, query: cfg.Query, db: db, render: r}, nil
}

// Close releases the database handle.
func (p *Provider) Close() error { return p.db.Close() }

// DynamicNodes implements provider.DynamicNodeProvider.
func (p *Provider) DynamicNodes(ctx context.Context, tmpl *graph.Node) iter.Seq2[*graph.Node, error] {
	return func(yield func(*graph.Node, error) bool) {
		err := p.stream(ctx, func(rec map[string]any) bool {
			n, err := p.render.Render(tmpl, rec)
			if err != nil {
				yield(nil, errors.Wrapf(err, "sql provider %q", p.name))
				return false
			}
			return yield(n, nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// stream iterates over the query rows, calling fn for each one.
// Only one row is alive at a time.
func (p *Provider) stream(ctx context.Context, fn func(map[string]any) bool) error {
	rows, err := p.db.QueryContext(ctx, p.query)
	if err != nil {
		return errors.Wrapf(err, "query %s", p.name)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	cols, err := rows.Columns()
	if err != nil {
		return errors.Wrap(err, "columns")
	}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return errors.Wrap(err, "scan row")
		}
		rec, err := toRecord(cols, vals)
		if err != nil {
			return err
		}
		if !fn(rec) {
			return nil
		}
	}
	return rows.Err()
}

func toRecord(cols []string, vals []any) (map[string]any, error) {
	rec := make(map[string]any, len(cols))
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		rec[c] = v
	}
	if raw, ok := rec[RecordColumn].(string); ok && raw != "" {
		parsed, err := oj.ParseString(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse record json")
		}
		if obj, ok := parsed.(map[string]any); ok {
			for k, v := range obj {
				if _, taken := rec[k]; !taken {
					rec[k] = v
				}
			}
		}
	}
	return rec, nil
}
