package fieldtype

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// Built-in type names
const (
	TypeBase        = "base"
	TypeString      = "string"
	TypeFlag        = "flag"
	TypeArray       = "array"
	TypeJSON        = "json"
	TypeUUID        = "puter-uuid"
	TypeImageBase64 = "image-base64"
)

var imageHeaderPattern = regexp.MustCompile(`^data:image/(png|jpe?g|gif|webp|svg\+xml);base64,`)

// Builtin returns an unsealed registry preloaded with the built-in
// scalar types. Callers add reference types and any application types
// before the first Resolve seals it.
func Builtin() *Registry {
	r := NewRegistry()

	// Registration of built-ins cannot fail: names are unique and the
	// registry is fresh.
	must(r.Register(&Definition{Name: TypeBase}))

	must(r.Register(&Definition{
		Name: TypeString,
		From: TypeBase,
		Ops: Ops{
			Adapt:          adaptString,
			Validate:       validateString,
			SQLDereference: dereferenceString,
		},
	}))

	must(r.Register(&Definition{
		Name: TypeFlag,
		From: TypeBase,
		Ops: Ops{
			IsSet:          func(value interface{}, present bool) bool { return present },
			Adapt:          adaptFlag,
			SQLReference:   referenceFlag,
			SQLDereference: dereferenceFlag,
		},
	}))

	must(r.Register(&Definition{
		Name: TypeArray,
		From: TypeBase,
		Ops: Ops{
			Validate:       validateArray,
			SQLReference:   referenceJSON,
			SQLDereference: dereferenceJSON,
		},
	}))

	must(r.Register(&Definition{
		Name: TypeJSON,
		From: TypeBase,
		Ops: Ops{
			SQLReference:   referenceJSON,
			SQLDereference: dereferenceJSON,
		},
	}))

	must(r.Register(&Definition{
		Name: TypeUUID,
		From: TypeString,
		Ops: Ops{
			Validate: validateUUID,
			Factory:  factoryUUID,
		},
	}))

	must(r.Register(&Definition{
		Name: TypeImageBase64,
		From: TypeString,
		Ops: Ops{
			Validate: validateImageBase64,
		},
	}))

	return r
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// adaptString coerces absent and null values to the empty string; that
// coercion is lossy but deliberate. Any other non-string input is a
// hard type mismatch.
func adaptString(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "string",
			Actual:   fmt.Sprintf("%T", value),
		}
	}
}

func validateString(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (*fielderr.Issue, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "string",
			Actual:   fmt.Sprintf("%T", value),
		}
	}

	length := utf8.RuneCountInString(s)
	if field.MaxLen > 0 && length > field.MaxLen {
		return nil, fielderr.TooLong(field.Name, field.MaxLen)
	}
	if field.MinLen > 0 && length < field.MinLen {
		return nil, fielderr.TooShort(field.Name, field.MinLen)
	}
	if field.Regex != nil && !field.Regex.MatchString(s) {
		return fielderr.NewIssue(field.Name, "does not match required pattern"), nil
	}
	return nil, nil
}

// dereferenceString reads stored NULL back as the empty string rather
// than nil.
func dereferenceString(_ context.Context, _ *opctx.Context, value interface{}, _ *Field) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case []byte:
		return string(v), nil
	default:
		return value, nil
	}
}

func adaptFlag(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case int64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case string:
		if v == "0" || v == "1" {
			return v == "1", nil
		}
	}
	return nil, &fielderr.TypeMismatchError{
		Field:    field.Name,
		Expected: "flag (bool, 0, or 1)",
		Actual:   fmt.Sprintf("%v (%T)", value, value),
	}
}

func referenceFlag(value interface{}, _ *Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("flag reference: expected bool, got %T", value)
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func dereferenceFlag(_ context.Context, _ *opctx.Context, value interface{}, _ *Field) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return len(v) > 0 && v[0] == '1', nil
	case string:
		return v == "1", nil
	default:
		return nil, fmt.Errorf("flag dereference: unexpected stored value %T", value)
	}
}

// validateArray type-checks the pass-through adapt output and enforces
// the length and modulo constraints. The minimum-length check in the
// system this replaces compared with an operator that could never fire;
// here minlen is enforced for real.
func validateArray(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (*fielderr.Issue, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "array",
			Actual:   fmt.Sprintf("%T", value),
		}
	}

	length := rv.Len()
	if field.MaxLen > 0 && length > field.MaxLen {
		return nil, fielderr.TooLong(field.Name, field.MaxLen)
	}
	if field.MinLen > 0 && length < field.MinLen {
		return nil, fielderr.TooShort(field.Name, field.MinLen)
	}
	if field.Mod > 0 && length%field.Mod != 0 {
		return nil, &fielderr.ConstraintError{
			Kind:    fielderr.KindFieldInvalid,
			Field:   field.Name,
			Limit:   field.Mod,
			Message: "length is not divisible by the configured modulus",
		}
	}
	return nil, nil
}

// referenceJSON persists arrays and json values as a single JSON column
func referenceJSON(value interface{}, field *Field) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding %s for storage: %w", field.Name, err)
	}
	return string(encoded), nil
}

func dereferenceJSON(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (interface{}, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, fmt.Errorf("decoding %s: unexpected stored value %T", field.Name, value)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", field.Name, err)
	}
	return decoded, nil
}

// validateUUID checks the configured prefix and the identifier body.
// Both problems are soft: the caller gets a field-scoped issue, not an
// aborted operation.
func validateUUID(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (*fielderr.Issue, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "string",
			Actual:   fmt.Sprintf("%T", value),
		}
	}

	body := s
	if field.UUIDPrefix != "" {
		if !strings.HasPrefix(s, field.UUIDPrefix+"-") {
			return fielderr.NewIssue(field.Name, fmt.Sprintf("identifier does not carry the %q prefix", field.UUIDPrefix)), nil
		}
		body = strings.TrimPrefix(s, field.UUIDPrefix+"-")
	}

	if _, err := uuid.Parse(body); err != nil {
		return fielderr.NewIssue(field.Name, "identifier is not a valid uuid"), nil
	}
	return nil, nil
}

// factoryUUID generates a prefixed v4 identifier
func factoryUUID(field *Field) (interface{}, error) {
	id := uuid.NewString()
	if field.UUIDPrefix == "" {
		return id, nil
	}
	return field.UUIDPrefix + "-" + id, nil
}

// validateImageBase64 accepts base64 image data URIs. The payload is
// checked against the base64 alphabet; anything outside it is
// denylisted and reported as a soft issue.
func validateImageBase64(_ context.Context, _ *opctx.Context, value interface{}, field *Field) (*fielderr.Issue, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &fielderr.TypeMismatchError{
			Field:    field.Name,
			Expected: "string",
			Actual:   fmt.Sprintf("%T", value),
		}
	}

	loc := imageHeaderPattern.FindStringIndex(s)
	if loc == nil {
		return fielderr.NewIssue(field.Name, "not a base64 image data uri"), nil
	}

	for _, r := range s[loc[1]:] {
		if !isBase64Rune(r) {
			return fielderr.NewIssue(field.Name, fmt.Sprintf("payload contains disallowed character %q", r)), nil
		}
	}
	return nil, nil
}

func isBase64Rune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '+' || r == '/' || r == '=':
		return true
	default:
		return false
	}
}
