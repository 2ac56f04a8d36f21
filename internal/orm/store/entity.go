// Package store provides SQL-backed implementations of the collaborator
// services the field type system resolves through the operation
// context: entity lookup, filesystem nodes, and access control.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// Querier is an interface for executing SQL queries, allowing for
// testing and instrumentation
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Entity is a loaded row. The row identifier is private to this type;
// reference fields read it exclusively through RowID.
type Entity struct {
	rowID  int64
	table  string
	values map[string]interface{}
}

// NewEntity creates an entity from a row identifier and column values
func NewEntity(rowID int64, table string, values map[string]interface{}) *Entity {
	if values == nil {
		values = make(map[string]interface{})
	}
	return &Entity{rowID: rowID, table: table, values: values}
}

// RowID implements opctx.Entity
func (e *Entity) RowID() int64 { return e.rowID }

// Table returns the relational table the entity was loaded from
func (e *Entity) Table() string { return e.table }

// Get returns a column value
func (e *Entity) Get(name string) (interface{}, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Values returns a copy of the column values
func (e *Entity) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// EntityStore looks up entities in one relational table. It implements
// opctx.EntityService.
type EntityStore struct {
	db        Querier
	table     string
	idColumn  string
	arrayCols map[string]bool
	postgres  bool
}

// EntityStoreOption configures an EntityStore
type EntityStoreOption func(*EntityStore)

// WithIDColumn overrides the primary key column name (default "id")
func WithIDColumn(name string) EntityStoreOption {
	return func(s *EntityStore) { s.idColumn = name }
}

// WithArrayColumns marks columns scanned as text arrays via pq.Array
func WithArrayColumns(names ...string) EntityStoreOption {
	return func(s *EntityStore) {
		for _, n := range names {
			s.arrayCols[n] = true
		}
	}
}

// WithPostgresPlaceholders switches the query placeholders to $N style
func WithPostgresPlaceholders() EntityStoreOption {
	return func(s *EntityStore) { s.postgres = true }
}

// NewEntityStore creates an entity lookup service over one table
func NewEntityStore(db Querier, table string, opts ...EntityStoreOption) *EntityStore {
	s := &EntityStore{
		db:        db,
		table:     table,
		idColumn:  "id",
		arrayCols: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read implements opctx.EntityService. Unknown identifiers come back as
// a ReferentialError so field logic can distinguish a missing target
// from an infrastructure failure.
func (s *EntityStore) Read(ctx context.Context, id interface{}) (opctx.Entity, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", s.table, s.idColumn, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, ConvertDBError(err)
		}
		return nil, &fielderr.ReferentialError{Service: s.table, ID: id}
	}

	record, err := scanRowMap(rows, s.arrayCols)
	if err != nil {
		return nil, fmt.Errorf("scanning %s row: %w", s.table, err)
	}

	rowID, ok := rowIdentifier(record[s.idColumn])
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a numeric identifier", s.table, s.idColumn)
	}

	return NewEntity(rowID, s.table, record), nil
}

func (s *EntityStore) placeholder(n int) string {
	if s.postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// rowIdentifier coerces the scanned primary key into an int64
func rowIdentifier(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
