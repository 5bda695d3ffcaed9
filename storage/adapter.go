// Package storage abstracts the SQL connection/capability surface the
// translator needs from a concrete database: plain connection plus
// capability probing. Schema introspection is supplied separately by the
// caller via resolve.SchemaIntrospector.
package storage

import (
	"context"
	"database/sql"

	"github.com/qdsl/qdsl/sqlgen"
)

// Backend names the concrete SQL dialect an Adapter targets.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Adapter connects to a database and reports which S*-tagged operator
// families its dialect can evaluate, so the translator
// (sqlgen.Translator.Capabilities) can reject an unsupported operator
// before emitting invalid SQL.
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlgen.PlaceholderStyle

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	HasFTS() bool
	HasJSONB() bool
	HasGeometry() bool

	// VerifyGeometry probes for the PostGIS extension (or equivalent).
	// Adapters with HasGeometry() == false always return nil.
	VerifyGeometry(ctx context.Context, db *sql.DB) error
}

// Capabilities reads an Adapter's probe methods into the plain struct
// sqlgen.Translator consumes.
func Capabilities(a Adapter) sqlgen.Capabilities {
	return sqlgen.Capabilities{
		FTS:      a.HasFTS(),
		JSONB:    a.HasJSONB(),
		Geometry: a.HasGeometry(),
	}
}
