// Package pipeline orchestrates per-field conversion between the
// application-level entity representation and the relational store.
// One field moves through a strict stage order; there are no retries
// and no partial effects.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// Direction selects which end of the store a field value is headed for
type Direction int

const (
	// Persist runs is_set, adapt, validate, and sql_reference
	Persist Direction = iota
	// Load runs sql_dereference only
	Load
)

// String returns the direction name
func (d Direction) String() string {
	if d == Load {
		return "load"
	}
	return "persist"
}

// FieldResult is the outcome of processing one field
type FieldResult struct {
	// Value is the stored column value (Persist) or the canonical
	// entity value (Load).
	Value interface{}
	// Set reports whether the field counted as supplied. An unset field
	// without a generated default persists as NULL.
	Set bool
	// Issue is the soft, field-scoped validation problem, if any.
	Issue *fielderr.Issue
}

// Pipeline resolves field types against a registry and drives values
// through the conversion stages.
type Pipeline struct {
	registry *fieldtype.Registry
	logger   *zap.Logger
}

// New creates a pipeline. A nil logger disables stage logging.
func New(registry *fieldtype.Registry, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{registry: registry, logger: logger}
}

// Process drives one field value through the stages for the given
// direction. present is false when the field key was absent from the
// input. A returned error is a hard abort for the owning operation;
// soft problems come back inside the result.
func (p *Pipeline) Process(
	ctx context.Context,
	oc *opctx.Context,
	dir Direction,
	raw interface{},
	present bool,
	field *fieldtype.Field,
) (*FieldResult, error) {
	t, err := p.registry.Resolve(field.Type)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if dir == Load {
		value, err := t.SQLDereference(ctx, oc, raw, field)
		if err != nil {
			return nil, err
		}
		p.stageLog(field, "sql_dereference", value)
		return &FieldResult{Value: value, Set: raw != nil}, nil
	}

	set := t.IsSet(raw, present)
	p.stageLog(field, "is_set", set)

	var value interface{}
	switch {
	case set:
		value, err = t.Adapt(ctx, oc, raw, field)
		if err != nil {
			return nil, err
		}
		p.stageLog(field, "adapt", value)

	case field.Generate && t.HasFactory():
		value, err = t.Factory(field)
		if err != nil {
			return nil, err
		}
		set = true
		p.stageLog(field, "factory", value)

	default:
		// Absent, nothing to generate: persists as NULL.
		return &FieldResult{Value: nil, Set: false}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issue, err := t.Validate(ctx, oc, value, field)
	if err != nil {
		return nil, err
	}
	p.stageLog(field, "validate", issue == nil)

	stored, err := t.SQLReference(value, field)
	if err != nil {
		return nil, err
	}
	p.stageLog(field, "sql_reference", stored)

	return &FieldResult{Value: stored, Set: true, Issue: issue}, nil
}

// stageLog emits a debug line for fields with the debug flag set
func (p *Pipeline) stageLog(field *fieldtype.Field, stage string, outcome interface{}) {
	if !field.Debug {
		return
	}
	p.logger.Debug("field stage",
		zap.String("field", field.Name),
		zap.String("type", field.Type),
		zap.String("stage", stage),
		zap.Any("outcome", outcome),
	)
}
