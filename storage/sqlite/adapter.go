// Package sqlite implements the storage.Adapter for SQLite, which
// supports neither JSONB, PostGIS geometry, nor PostgreSQL-style FTS (it
// has its own FTS5 virtual tables, which this operator matrix does not
// target). Queries using S*-tagged operators against this adapter fail
// validation with OperatorNotSupportedByBackend.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/qdsl/qdsl/sqlgen"
	"github.com/qdsl/qdsl/storage"
)

// DriverName selects which registered driver Connect opens: "sqlite3"
// for the cgo mattn/go-sqlite3 driver, "sqlite" for the pure-Go
// modernc.org/sqlite driver.
type Adapter struct {
	Path       string
	DriverName string
}

// New builds an Adapter using the pure-Go modernc.org/sqlite driver.
func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite"}
}

// NewCgo builds an Adapter using the cgo mattn/go-sqlite3 driver.
func NewCgo(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite3"}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendSQLite }

func (a *Adapter) PlaceholderStyle() sqlgen.PlaceholderStyle { return sqlgen.PlaceholderQuestion }

func (a *Adapter) HasFTS() bool      { return false }
func (a *Adapter) HasJSONB() bool    { return false }
func (a *Adapter) HasGeometry() bool { return false }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	dsn := a.Path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	} else {
		dsn += "&_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open(a.DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// VerifyGeometry always succeeds trivially: SQLite never advertises
// geometry support, so the translator never reaches this call for it.
func (a *Adapter) VerifyGeometry(ctx context.Context, db *sql.DB) error { return nil }
