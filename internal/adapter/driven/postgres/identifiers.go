package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrTableNotAllowed is returned when configuration names a reporting table
// outside the allow-list.
var ErrTableNotAllowed = errors.New("reporting table not in allow-list")

// allowedTables is the fixed set of schema-qualified tables the query catalog
// may be pointed at. Identifiers are interpolated into SQL, so only trusted
// configuration values that appear here are accepted.
var allowedTables = map[string]map[string]bool{
	"reporting": {
		"claims_enriched": true,
	},
}

// TableRef is a validated schema-qualified table name.
type TableRef struct {
	Schema string
	Name   string
}

// NewTableRef validates schema and name against the allow-list.
func NewTableRef(schema, name string) (TableRef, error) {
	if !allowedTables[schema][name] {
		return TableRef{}, fmt.Errorf("%w: %s.%s", ErrTableNotAllowed, schema, name)
	}
	return TableRef{Schema: schema, Name: name}, nil
}

// Quoted returns the table as a quoted SQL identifier, e.g. "reporting"."claims_enriched".
func (t TableRef) Quoted() string {
	return pgx.Identifier{t.Schema, t.Name}.Sanitize()
}

// String returns schema.name for logs.
func (t TableRef) String() string {
	return t.Schema + "." + t.Name
}

// quoteColumn quotes a column name read from information_schema.
func quoteColumn(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
