// Package opctx carries the ambient state of one entity operation: the
// authenticated actor and a typed locator for the cooperating
// subsystems that field logic reaches without static coupling.
package opctx

import (
	"context"
	"fmt"
)

// Entity is the application-level view of a stored record. The concrete
// implementation exclusively owns the row identifier; field logic only
// ever reads it through this accessor.
type Entity interface {
	// RowID returns the primary identifier under which the entity is
	// persisted.
	RowID() int64
}

// EntityService looks up entities by primary identifier.
type EntityService interface {
	// Read loads the entity with the given identifier. Implementations
	// return an error satisfying fielderr.IsReferential for unknown
	// identifiers.
	Read(ctx context.Context, id interface{}) (Entity, error)
}

// NodeHandle is a resolved virtual filesystem node.
type NodeHandle interface {
	// UID returns the node's public identifier.
	UID() string
	// InternalID returns the numeric identifier used in persisted columns.
	InternalID() int64
	// Path returns the node's absolute path.
	Path() string
}

// NodeSelector identifies a filesystem node for lookup. Exactly one of
// ByUID, ByInternalID, or ByPath.
type NodeSelector interface {
	// CacheKey returns a stable key identifying the selected node within
	// one operation.
	CacheKey() string
}

// ByUID selects a node by its public identifier
type ByUID struct {
	UID string
}

// CacheKey implements NodeSelector
func (s ByUID) CacheKey() string { return "uid:" + s.UID }

// ByInternalID selects a node by backing store and numeric identifier
type ByInternalID struct {
	Store string
	ID    int64
}

// CacheKey implements NodeSelector
func (s ByInternalID) CacheKey() string { return fmt.Sprintf("id:%s:%d", s.Store, s.ID) }

// ByPath selects a node by absolute path
type ByPath struct {
	Path string
}

// CacheKey implements NodeSelector
func (s ByPath) CacheKey() string { return "path:" + s.Path }

// FilesystemService resolves node selectors to handles.
type FilesystemService interface {
	Node(ctx context.Context, sel NodeSelector) (NodeHandle, error)
}

// AccessControlService answers permission checks for the current actor.
// Only the call contract matters to the field layer; policy semantics
// live elsewhere.
type AccessControlService interface {
	// Check reports whether the actor holds the permission on the node.
	Check(ctx context.Context, actor *Actor, node NodeHandle, permission string) (bool, error)
	// SafeError returns the minimal, non-leaking error to surface when
	// Check came back false.
	SafeError(actor *Actor, node NodeHandle, permission string) error
}

// Actor is the authenticated identity an operation executes under.
// A nil *Actor means the operation is unauthenticated.
type Actor struct {
	ID       int64
	Username string
}
