package fieldtype

import (
	"fmt"
	"regexp"
)

// Field is the per-entity-field configuration: the type it names plus
// constraint settings. Fields are built once per entity schema and
// passed into every operation invocation for that field.
type Field struct {
	// Name is the field key; it doubles as the relational column name.
	Name string
	// Type names the field's type in the registry.
	Type string

	// MaxLen and MinLen bound string and array lengths. Zero or
	// negative means unbounded.
	MaxLen int
	MinLen int
	// Regex, when non-nil, must match string values. A mismatch is a
	// soft issue, not a hard abort.
	Regex *regexp.Regexp
	// Mod requires array lengths to be evenly divisible. Zero disables
	// the check.
	Mod int
	// UUIDPrefix is the identifier prefix for generated uuid values.
	UUIDPrefix string
	// Service names the target entity service for reference fields.
	// Empty means reference values pass through unresolved.
	Service string
	// Permission is the access-control permission checked for
	// filesystem-node fields. Empty defaults to "see".
	Permission string
	// Generate requests a server-generated default when no value was
	// supplied.
	Generate bool
	// Debug enables per-stage debug logging for this field.
	Debug bool
}

// RequiredPermission returns the configured permission, defaulting to "see"
func (f *Field) RequiredPermission() string {
	if f.Permission == "" {
		return "see"
	}
	return f.Permission
}

// Validate checks that the field configuration itself is coherent
func (f *Field) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	if f.Type == "" {
		return fmt.Errorf("field %s names no type", f.Name)
	}
	if f.MaxLen > 0 && f.MinLen > f.MaxLen {
		return fmt.Errorf("field %s: minlen %d exceeds maxlen %d", f.Name, f.MinLen, f.MaxLen)
	}
	if f.Mod < 0 {
		return fmt.Errorf("field %s: negative modulo %d", f.Name, f.Mod)
	}
	return nil
}
