package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// Node is a resolved filesystem node backed by a row in the nodes
// table. It implements opctx.NodeHandle.
type Node struct {
	internalID int64
	uid        string
	path       string
}

// NewNode creates a node handle
func NewNode(internalID int64, uid, path string) *Node {
	return &Node{internalID: internalID, uid: uid, path: path}
}

// UID implements opctx.NodeHandle
func (n *Node) UID() string { return n.uid }

// InternalID implements opctx.NodeHandle
func (n *Node) InternalID() int64 { return n.internalID }

// Path implements opctx.NodeHandle
func (n *Node) Path() string { return n.path }

// NodeStore resolves node selectors against a nodes table with columns
// id, uid, and path. It implements opctx.FilesystemService.
type NodeStore struct {
	db       Querier
	table    string
	postgres bool
}

// NodeStoreOption configures a NodeStore
type NodeStoreOption func(*NodeStore)

// NodeStorePostgres switches the query placeholders to $N style
func NodeStorePostgres() NodeStoreOption {
	return func(s *NodeStore) { s.postgres = true }
}

// NewNodeStore creates a filesystem service over a nodes table
func NewNodeStore(db Querier, table string, opts ...NodeStoreOption) *NodeStore {
	s := &NodeStore{db: db, table: table}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Node implements opctx.FilesystemService
func (s *NodeStore) Node(ctx context.Context, sel opctx.NodeSelector) (opctx.NodeHandle, error) {
	var (
		column string
		arg    interface{}
	)

	switch v := sel.(type) {
	case opctx.ByUID:
		column, arg = "uid", v.UID
	case opctx.ByInternalID:
		column, arg = "id", v.ID
	case opctx.ByPath:
		column, arg = "path", v.Path
	default:
		return nil, fmt.Errorf("unsupported node selector %T", sel)
	}

	placeholder := "?"
	if s.postgres {
		placeholder = "$1"
	}
	query := fmt.Sprintf("SELECT id, uid, path FROM %s WHERE %s = %s", s.table, column, placeholder)

	var node Node
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&node.internalID, &node.uid, &node.path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &fielderr.ReferentialError{Service: s.table, ID: arg}
		}
		return nil, ConvertDBError(err)
	}

	return &node, nil
}
