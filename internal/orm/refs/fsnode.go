package refs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// defaultNodeStore names the backing store used when a field does not
// pin one for internal-id selectors.
const defaultNodeStore = "sql"

// adaptNode resolves a filesystem-node value to a concrete handle.
// Accepted external shapes: an absolute path, a home-relative path
// prefixed with "~" (expanded with the actor's username), or a node
// UID. Malformed values are rejected before any lookup. Resolution
// goes through the operation-scoped node cache.
func adaptNode(ctx context.Context, oc *opctx.Context, value interface{}, field *fieldtype.Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if node, ok := value.(opctx.NodeHandle); ok {
		return node, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "node path or uid",
			Actual:   fmt.Sprintf("%T", value),
		}
	}

	sel, err := nodeSelector(oc, s, field)
	if err != nil {
		return nil, err
	}

	node, err := oc.ResolveNode(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("resolving node for %s: %w", field.Name, err)
	}
	return node, nil
}

// nodeSelector maps the external string shapes onto lookup selectors
func nodeSelector(oc *opctx.Context, s string, field *fieldtype.Field) (opctx.NodeSelector, error) {
	switch {
	case strings.HasPrefix(s, "/"):
		return opctx.ByPath{Path: s}, nil

	case strings.HasPrefix(s, "~"):
		actor := oc.Actor()
		if actor == nil || actor.Username == "" {
			return nil, fielderr.Invalid(field.Name, "home-relative path requires an authenticated actor")
		}
		return opctx.ByPath{Path: "/" + actor.Username + strings.TrimPrefix(s, "~")}, nil

	default:
		if _, err := uuid.Parse(s); err == nil {
			return opctx.ByUID{UID: s}, nil
		}
		return nil, fielderr.Invalid(field.Name,
			"expected an absolute path, a ~-prefixed path, or a node uid")
	}
}

// validateNode enforces access on a resolved handle. The filesystem
// root is never a valid target, whatever the access-control service
// would say; past that, the field's permission (default "see") is
// checked for the current actor, and a denial surfaces the service's
// minimal safe error.
func validateNode(ctx context.Context, oc *opctx.Context, value interface{}, field *fieldtype.Field) (*fielderr.Issue, error) {
	if value == nil {
		return nil, nil
	}

	node, ok := value.(opctx.NodeHandle)
	if !ok {
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "node handle",
			Actual:   fmt.Sprintf("%T", value),
		}
	}

	if node.Path() == "/" {
		return nil, &fielderr.PermissionError{Field: field.Name, Permission: field.RequiredPermission()}
	}

	acl, err := oc.AccessControl()
	if err != nil {
		return nil, err
	}

	permission := field.RequiredPermission()
	allowed, err := acl.Check(ctx, oc.Actor(), node, permission)
	if err != nil {
		return nil, fmt.Errorf("checking %s on %s: %w", permission, field.Name, err)
	}
	if !allowed {
		return nil, acl.SafeError(oc.Actor(), node, permission)
	}
	return nil, nil
}

// referenceNode maps a handle to its internal numeric identifier
func referenceNode(value interface{}, _ *fieldtype.Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if node, ok := value.(opctx.NodeHandle); ok {
		return node.InternalID(), nil
	}
	return value, nil
}

// dereferenceNode resolves a stored numeric identifier back to a handle
func dereferenceNode(ctx context.Context, oc *opctx.Context, value interface{}, field *fieldtype.Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	id, ok := storedNodeID(value)
	if !ok {
		return nil, &fielderr.ReferentialError{Field: field.Name, ID: value}
	}

	node, err := oc.ResolveNode(ctx, opctx.ByInternalID{Store: defaultNodeStore, ID: id})
	if err != nil {
		return nil, &fielderr.ReferentialError{Field: field.Name, ID: id}
	}
	return node, nil
}

func storedNodeID(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case []byte:
		id, err := strconv.ParseInt(string(v), 10, 64)
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
