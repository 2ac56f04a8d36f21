package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// ACLStore answers permission checks from a permissions table with
// columns actor_id, node_id, and permission. It implements
// opctx.AccessControlService; only the call contract matters to the
// field layer, richer policy evaluation lives behind the same table.
type ACLStore struct {
	db       Querier
	table    string
	postgres bool
}

// ACLStoreOption configures an ACLStore
type ACLStoreOption func(*ACLStore)

// ACLStorePostgres switches the query placeholders to $N style
func ACLStorePostgres() ACLStoreOption {
	return func(s *ACLStore) { s.postgres = true }
}

// NewACLStore creates an access-control service over a permissions table
func NewACLStore(db Querier, table string, opts ...ACLStoreOption) *ACLStore {
	s := &ACLStore{db: db, table: table}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implements opctx.AccessControlService. An unauthenticated actor
// holds no permissions.
func (s *ACLStore) Check(ctx context.Context, actor *opctx.Actor, node opctx.NodeHandle, permission string) (bool, error) {
	if actor == nil || node == nil {
		return false, nil
	}

	placeholders := []string{"?", "?", "?"}
	if s.postgres {
		placeholders = []string{"$1", "$2", "$3"}
	}
	query := fmt.Sprintf(
		"SELECT 1 FROM %s WHERE actor_id = %s AND node_id = %s AND permission = %s",
		s.table, placeholders[0], placeholders[1], placeholders[2],
	)

	var one int
	err := s.db.QueryRowContext(ctx, query, actor.ID, node.InternalID(), permission).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, ConvertDBError(err)
	}
	return true, nil
}

// SafeError implements opctx.AccessControlService. The returned error
// names the permission and nothing about why it was refused.
func (s *ACLStore) SafeError(_ *opctx.Actor, _ opctx.NodeHandle, permission string) error {
	return &fielderr.PermissionError{Permission: permission}
}
