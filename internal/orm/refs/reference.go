// Package refs provides the reference-like field types: cross-entity
// references and virtual filesystem-node identifiers. Both resolve
// values through the operation context rather than through static
// service dependencies.
package refs

import (
	"context"
	"fmt"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// Reference type names
const (
	TypeReference = "reference"
	TypeFSNode    = "fsnode"
)

// Register adds the reference types to a registry. Call before the
// registry is sealed, alongside the built-in scalars.
func Register(r *fieldtype.Registry) error {
	if err := r.Register(&fieldtype.Definition{
		Name: TypeReference,
		From: fieldtype.TypeBase,
		Ops: fieldtype.Ops{
			IsSet:          isSetReference,
			Adapt:          adaptReference,
			SQLReference:   referenceEntity,
			SQLDereference: dereferenceEntity,
		},
	}); err != nil {
		return err
	}

	return r.Register(&fieldtype.Definition{
		Name: TypeFSNode,
		From: fieldtype.TypeBase,
		Ops: fieldtype.Ops{
			IsSet:          isSetReference,
			Adapt:          adaptNode,
			Validate:       validateNode,
			SQLReference:   referenceNode,
			SQLDereference: dereferenceNode,
		},
	})
}

// isSetReference counts an explicitly supplied null as set: clearing a
// reference is a real write, unlike an absent key.
func isSetReference(_ interface{}, present bool) bool {
	return present
}

// adaptReference resolves a raw value to its entity form. Without a
// configured target service the value passes through unchanged; an
// already-resolved entity short-circuits; anything else is looked up by
// identifier through the named service.
func adaptReference(ctx context.Context, oc *opctx.Context, value interface{}, field *fieldtype.Field) (interface{}, error) {
	if field.Service == "" || value == nil {
		return value, nil
	}
	if entity, ok := value.(opctx.Entity); ok {
		return entity, nil
	}

	svc, err := oc.EntityService(field.Service)
	if err != nil {
		return nil, fielderr.NewConfigurationError("field %s: %v", field.Name, err)
	}

	entity, err := svc.Read(ctx, value)
	if err != nil {
		if fielderr.IsReferential(err) {
			return nil, &fielderr.ReferentialError{Field: field.Name, Service: field.Service, ID: value}
		}
		return nil, fmt.Errorf("resolving %s through %s: %w", field.Name, field.Service, err)
	}
	return entity, nil
}

// referenceEntity converts an entity to its storage identifier. The
// identifier lives in a private field of the entity implementation;
// only the RowID accessor reads it. Plain values pass through, absent
// values persist as NULL.
func referenceEntity(value interface{}, _ *fieldtype.Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if entity, ok := value.(opctx.Entity); ok {
		return entity.RowID(), nil
	}
	return value, nil
}

// dereferenceEntity performs the inverse lookup when loading a stored
// row back into an entity.
func dereferenceEntity(ctx context.Context, oc *opctx.Context, value interface{}, field *fieldtype.Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if field.Service == "" {
		return value, nil
	}

	svc, err := oc.EntityService(field.Service)
	if err != nil {
		return nil, fielderr.NewConfigurationError("field %s: %v", field.Name, err)
	}

	entity, err := svc.Read(ctx, value)
	if err != nil {
		if fielderr.IsReferential(err) {
			return nil, &fielderr.ReferentialError{Field: field.Name, Service: field.Service, ID: value}
		}
		return nil, fmt.Errorf("dereferencing %s through %s: %w", field.Name, field.Service, err)
	}
	return entity, nil
}
