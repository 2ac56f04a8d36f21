package pipeline

import (
	"context"
	"sync"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

// RecordResult is the outcome of processing one record
type RecordResult struct {
	// Values maps field names to their processed values. Unset fields
	// are present with a nil value.
	Values map[string]interface{}
	// Report aggregates soft, field-scoped issues across the record.
	Report *fielderr.Report
}

// ProcessRecord runs every field of a record through the pipeline.
// Fields carry no dependency on each other and are processed
// concurrently; the first hard error cancels the remaining fields and
// aborts the operation with no partial result. Soft issues from all
// fields are aggregated into the result's report.
//
// Ordering across entities is the caller's concern: a reference field's
// target entity must already be durably persisted before this record
// is.
func (p *Pipeline) ProcessRecord(
	ctx context.Context,
	oc *opctx.Context,
	dir Direction,
	record map[string]interface{},
	fields []*fieldtype.Field,
) (*RecordResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := &RecordResult{
		Values: make(map[string]interface{}, len(fields)),
		Report: fielderr.NewReport(),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, field := range fields {
		raw, present := record[field.Name]

		wg.Add(1)
		go func(field *fieldtype.Field, raw interface{}, present bool) {
			defer wg.Done()

			fr, err := p.Process(ctx, oc, dir, raw, present, field)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}

			result.Values[field.Name] = fr.Value
			if fr.Issue != nil {
				result.Report.Add(*fr.Issue)
			}
		}(field, raw, present)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}
