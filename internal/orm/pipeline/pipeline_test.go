package pipeline

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/opctx"
	"github.com/facet-orm/facet/internal/orm/refs"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	registry := fieldtype.Builtin()
	require.NoError(t, refs.Register(registry))
	return New(registry, nil)
}

func TestProcessPersistString(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{Name: "title", Type: fieldtype.TypeString, MaxLen: 10}

	result, err := p.Process(context.Background(), oc, Persist, "hello", true, field)
	require.NoError(t, err)
	assert.True(t, result.Set)
	assert.Equal(t, "hello", result.Value)
	assert.Nil(t, result.Issue)
}

func TestProcessHardConstraintAborts(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{Name: "title", Type: fieldtype.TypeString, MaxLen: 3}

	_, err := p.Process(context.Background(), oc, Persist, "toolong", true, field)
	require.Error(t, err)
	assert.Equal(t, fielderr.KindFieldTooLong, fielderr.KindOf(err))
}

func TestProcessSoftIssueDoesNotAbort(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{
		Name:  "slug",
		Type:  fieldtype.TypeString,
		Regex: regexp.MustCompile(`^[a-z]+$`),
	}

	result, err := p.Process(context.Background(), oc, Persist, "Not Valid", true, field)
	require.NoError(t, err)
	require.NotNil(t, result.Issue)
	assert.Equal(t, "slug", result.Issue.Field)
	// The value still made it through sql_reference.
	assert.Equal(t, "Not Valid", result.Value)
}

func TestProcessAbsentWithoutFactory(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{Name: "title", Type: fieldtype.TypeString}

	result, err := p.Process(context.Background(), oc, Persist, nil, false, field)
	require.NoError(t, err)
	assert.False(t, result.Set)
	assert.Nil(t, result.Value)
}

func TestProcessFactoryGeneratesDefault(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{
		Name:       "uid",
		Type:       fieldtype.TypeUUID,
		UUIDPrefix: "doc",
		Generate:   true,
	}

	result, err := p.Process(context.Background(), oc, Persist, nil, false, field)
	require.NoError(t, err)
	assert.True(t, result.Set)
	assert.Regexp(t, `^doc-[0-9a-f-]{36}$`, result.Value)
	assert.Nil(t, result.Issue, "generated value must pass its own validation")
}

func TestProcessLoadString(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{Name: "title", Type: fieldtype.TypeString}

	// Stored NULL loads back as the empty string.
	result, err := p.Process(context.Background(), oc, Load, nil, true, field)
	require.NoError(t, err)
	assert.Equal(t, "", result.Value)

	result, err = p.Process(context.Background(), oc, Load, []byte("hi"), true, field)
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Value)
}

func TestProcessCancelledContext(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{Name: "title", Type: fieldtype.TypeString}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, oc, Persist, "hello", true, field)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessUnknownType(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()
	field := &fieldtype.Field{Name: "x", Type: "no-such-type"}

	_, err := p.Process(context.Background(), oc, Persist, "v", true, field)
	require.Error(t, err)
	assert.True(t, fielderr.IsConfiguration(err))
}

func TestProcessRecord(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()

	fields := []*fieldtype.Field{
		{Name: "title", Type: fieldtype.TypeString, MaxLen: 50},
		{Name: "slug", Type: fieldtype.TypeString, Regex: regexp.MustCompile(`^[a-z-]+$`)},
		{Name: "active", Type: fieldtype.TypeFlag},
		{Name: "uid", Type: fieldtype.TypeUUID, UUIDPrefix: "doc", Generate: true},
	}

	record := map[string]interface{}{
		"title":  "A Title",
		"slug":   "Not A Slug",
		"active": 1,
	}

	result, err := p.ProcessRecord(context.Background(), oc, Persist, record, fields)
	require.NoError(t, err)

	assert.Equal(t, "A Title", result.Values["title"])
	assert.Equal(t, int64(1), result.Values["active"])
	assert.Regexp(t, `^doc-`, result.Values["uid"])

	// The slug mismatch is soft: collected, not fatal.
	require.True(t, result.Report.HasIssues())
	issues := result.Report.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "slug", issues[0].Field)
}

func TestProcessRecordHardErrorAborts(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()

	fields := []*fieldtype.Field{
		{Name: "title", Type: fieldtype.TypeString, MaxLen: 3},
		{Name: "active", Type: fieldtype.TypeFlag},
	}

	record := map[string]interface{}{
		"title":  "far too long",
		"active": true,
	}

	result, err := p.ProcessRecord(context.Background(), oc, Persist, record, fields)
	require.Error(t, err)
	assert.Nil(t, result, "no partial result on abort")
	assert.Equal(t, fielderr.KindFieldTooLong, fielderr.KindOf(err))
}

func TestProcessRecordLoadDirection(t *testing.T) {
	p := newPipeline(t)
	oc := opctx.New()

	fields := []*fieldtype.Field{
		{Name: "title", Type: fieldtype.TypeString},
		{Name: "active", Type: fieldtype.TypeFlag},
		{Name: "tags", Type: fieldtype.TypeArray},
	}

	row := map[string]interface{}{
		"title":  "stored",
		"active": int64(1),
		"tags":   `["a","b"]`,
	}

	result, err := p.ProcessRecord(context.Background(), oc, Load, row, fields)
	require.NoError(t, err)
	assert.Equal(t, "stored", result.Values["title"])
	assert.Equal(t, true, result.Values["active"])
	assert.Equal(t, []interface{}{"a", "b"}, result.Values["tags"])
}
