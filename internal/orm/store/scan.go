package store

import (
	"database/sql"

	"github.com/lib/pq"
)

// scanRowMap scans the current row into a column-keyed map. Columns in
// arrayCols are scanned through pq.Array into []string; []byte values
// elsewhere are normalized to string.
func scanRowMap(rows *sql.Rows, arrayCols map[string]bool) (map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	arrays := make(map[int]*pq.StringArray)

	for i, col := range columns {
		if arrayCols[col] {
			// pq.StringArray implements sql.Scanner for text[] columns.
			arr := &pq.StringArray{}
			arrays[i] = arr
			valuePtrs[i] = arr
			continue
		}
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	record := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if arr, ok := arrays[i]; ok {
			record[col] = []string(*arr)
			continue
		}
		if b, ok := values[i].([]byte); ok {
			record[col] = string(b)
			continue
		}
		record[col] = values[i]
	}

	return record, nil
}
