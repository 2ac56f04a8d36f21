package fielderr

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "too long", err: TooLong("title", 3), want: KindFieldTooLong},
		{name: "too short", err: TooShort("title", 2), want: KindFieldTooShort},
		{name: "invalid", err: Invalid("title", "bad"), want: KindFieldInvalid},
		{name: "permission", err: &PermissionError{Field: "node"}, want: KindForbidden},
		{name: "referential", err: &ReferentialError{Field: "owner", ID: 9}, want: KindEntityNotFound},
		{name: "type mismatch", err: &TypeMismatchError{Field: "x"}, want: KindFieldInvalid},
		{name: "wrapped constraint", err: fmt.Errorf("outer: %w", TooLong("t", 1)), want: KindFieldTooLong},
		{name: "plain error", err: fmt.Errorf("boom"), want: KindFieldInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConstraintErrorMessage(t *testing.T) {
	err := TooLong("tags", 3)
	if err.Field != "tags" || err.Limit != 3 {
		t.Errorf("unexpected fields: %+v", err)
	}
	if !strings.Contains(err.Error(), "tags") || !strings.Contains(err.Error(), "3") {
		t.Errorf("message should carry field and limit: %s", err.Error())
	}
}

func TestPermissionErrorIsMinimal(t *testing.T) {
	err := &PermissionError{Field: "target", Permission: "see"}
	if strings.Contains(err.Error(), "see") {
		t.Errorf("permission error must not leak policy detail: %s", err.Error())
	}
}

func TestPredicates(t *testing.T) {
	if !IsConstraint(TooLong("f", 1)) {
		t.Error("IsConstraint failed")
	}
	if !IsPermission(&PermissionError{}) {
		t.Error("IsPermission failed")
	}
	if !IsTypeMismatch(&TypeMismatchError{}) {
		t.Error("IsTypeMismatch failed")
	}
	if !IsReferential(&ReferentialError{}) {
		t.Error("IsReferential failed")
	}
	if !IsConfiguration(NewConfigurationError("x")) {
		t.Error("IsConfiguration failed")
	}
	if IsConstraint(fmt.Errorf("plain")) {
		t.Error("IsConstraint matched a plain error")
	}
}

func TestReportAggregation(t *testing.T) {
	r := NewReport()
	if r.HasIssues() {
		t.Fatal("fresh report has issues")
	}

	r.Add(*NewIssue("slug", "does not match required pattern"))
	r.Add(Issue{Field: "uid", Kind: KindFieldInvalid, Message: "wrong prefix"})

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if !strings.Contains(r.Error(), "slug") || !strings.Contains(r.Error(), "uid") {
		t.Errorf("Error() should list every field: %s", r.Error())
	}
}

func TestReportConcurrentAdd(t *testing.T) {
	r := NewReport()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Add(Issue{Field: fmt.Sprintf("f%d", i), Kind: KindFieldInvalid, Message: "x"})
		}(i)
	}
	wg.Wait()

	if r.Count() != 20 {
		t.Errorf("Count() = %d, want 20", r.Count())
	}
}

func TestReportJSON(t *testing.T) {
	r := NewReport()
	r.Add(Issue{Field: "slug", Kind: KindFieldInvalid, Message: "bad"})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Error  string  `json:"error"`
		Issues []Issue `json:"issues"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Error != "validation_failed" || len(decoded.Issues) != 1 {
		t.Errorf("unexpected JSON shape: %s", data)
	}
}
