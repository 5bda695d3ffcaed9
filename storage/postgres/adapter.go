// Package postgres implements the storage.Adapter for PostgreSQL, the
// only dialect with the full S*-tagged operator capability set (FTS via
// tsvector, JSONB operators, PostGIS geometry).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/qdsl/qdsl/sqlgen"
	"github.com/qdsl/qdsl/storage"
)

// Adapter connects to a Postgres database, optionally pinned to a
// dedicated schema via search_path.
type Adapter struct {
	DSN    string
	Schema string

	geometryVerified bool
}

// New builds an Adapter. schema may be empty to use the connection's
// default search_path.
func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) PlaceholderStyle() sqlgen.PlaceholderStyle { return sqlgen.PlaceholderDollar }

func (a *Adapter) HasFTS() bool      { return true }
func (a *Adapter) HasJSONB() bool    { return true }
func (a *Adapter) HasGeometry() bool { return true }

func (a *Adapter) Close() error { return nil }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteIdent(ident string) string { return `"` + ident + `"` }

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	if a.Schema != "" {
		if !schemaNameRe.MatchString(a.Schema) {
			return nil, fmt.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
		}
		if cfg.RuntimeParams == nil {
			cfg.RuntimeParams = make(map[string]string)
		}
		cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", quoteIdent(a.Schema))
	}

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// VerifyGeometry probes for the postgis extension, the same way the
// teacher's VerifyFTS probes for FTS support before a query relies on it.
func (a *Adapter) VerifyGeometry(ctx context.Context, db *sql.DB) error {
	var installed bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'postgis')`).Scan(&installed)
	if err != nil {
		return fmt.Errorf("probe postgis extension: %w", err)
	}
	if !installed {
		return fmt.Errorf("postgis extension is not installed")
	}
	a.geometryVerified = true
	return nil
}
