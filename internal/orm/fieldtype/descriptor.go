// Package fieldtype provides the declarative registry of entity field
// types. A type is a named bundle of operations, optionally inherited
// from a parent type; the registry flattens parent chains once at
// startup into effective operation tables.
package fieldtype

import (
	"context"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// IsSetFunc reports whether a raw value counts as supplied. present is
// false when the field key was absent from the input entirely; a nil
// value with present true models an explicit null.
type IsSetFunc func(value interface{}, present bool) bool

// AdaptFunc converts a raw input value into the canonical in-memory
// value for a field. It may call out to cooperating services through
// the operation context.
type AdaptFunc func(ctx context.Context, oc *opctx.Context, value interface{}, field *Field) (interface{}, error)

// ValidateFunc checks a canonical value against the field's
// constraints. Three outcomes: (nil, nil) means valid; a non-nil Issue
// is a soft, field-scoped problem collected for reporting; a non-nil
// error is a hard violation that aborts the whole operation.
type ValidateFunc func(ctx context.Context, oc *opctx.Context, value interface{}, field *Field) (*fielderr.Issue, error)

// ReferenceFunc converts a canonical value into its persisted column
// representation. A nil result persists as SQL NULL.
type ReferenceFunc func(value interface{}, field *Field) (interface{}, error)

// DereferenceFunc converts a persisted column value back into the
// canonical in-memory value, resolving foreign identifiers through the
// operation context where needed.
type DereferenceFunc func(ctx context.Context, oc *opctx.Context, value interface{}, field *Field) (interface{}, error)

// FactoryFunc generates a value for a field that requires a
// server-generated default and was not supplied.
type FactoryFunc func(field *Field) (interface{}, error)

// Ops is the operation set of a type descriptor. Nil entries inherit
// the parent's operation of the same name.
type Ops struct {
	IsSet          IsSetFunc
	Adapt          AdaptFunc
	Validate       ValidateFunc
	SQLReference   ReferenceFunc
	SQLDereference DereferenceFunc
	Factory        FactoryFunc
}

// Definition is a registered type descriptor: a name, an optional
// parent type name, and the operations the type declares itself.
type Definition struct {
	// Name uniquely identifies the type in the registry.
	Name string
	// From names the parent type. Empty for a root type.
	From string
	// Ops holds the operations this type declares. Operations left nil
	// are inherited from the parent chain.
	Ops Ops
}

// Type is a resolved type: the effective operation set after flattening
// the parent chain root-first with child overriding parent. Resolved
// types are immutable and safe for concurrent use.
type Type struct {
	name string
	ops  Ops
}

// Name returns the type name
func (t *Type) Name() string { return t.name }

// IsSet reports whether the raw value counts as supplied for this type
func (t *Type) IsSet(value interface{}, present bool) bool {
	if t.ops.IsSet == nil {
		return present && truthy(value)
	}
	return t.ops.IsSet(value, present)
}

// Adapt converts a raw value into the canonical in-memory value
func (t *Type) Adapt(ctx context.Context, oc *opctx.Context, value interface{}, field *Field) (interface{}, error) {
	if t.ops.Adapt == nil {
		return value, nil
	}
	return t.ops.Adapt(ctx, oc, value, field)
}

// Validate checks a canonical value against the field's constraints
func (t *Type) Validate(ctx context.Context, oc *opctx.Context, value interface{}, field *Field) (*fielderr.Issue, error) {
	if t.ops.Validate == nil {
		return nil, nil
	}
	return t.ops.Validate(ctx, oc, value, field)
}

// SQLReference converts a canonical value to its persisted representation
func (t *Type) SQLReference(value interface{}, field *Field) (interface{}, error) {
	if t.ops.SQLReference == nil {
		return value, nil
	}
	return t.ops.SQLReference(value, field)
}

// SQLDereference converts a persisted value back to canonical form
func (t *Type) SQLDereference(ctx context.Context, oc *opctx.Context, value interface{}, field *Field) (interface{}, error) {
	if t.ops.SQLDereference == nil {
		return value, nil
	}
	return t.ops.SQLDereference(ctx, oc, value, field)
}

// HasFactory reports whether the type can generate a default value
func (t *Type) HasFactory() bool { return t.ops.Factory != nil }

// Factory generates a value for an absent field
func (t *Type) Factory(field *Field) (interface{}, error) {
	if t.ops.Factory == nil {
		return nil, fielderr.NewConfigurationError("type %s has no factory", t.name)
	}
	return t.ops.Factory(field)
}

// truthy is the default presence predicate: zero values, empty strings,
// false, and nil do not count as set.
func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
