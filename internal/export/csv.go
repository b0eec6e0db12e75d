package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one row: column name to value, in column order.
type Record = *orderedmap.OrderedMap[string, any]

// DataAsCSV renders records as CSV. The header is the key list of the first
// record; every cell is wrapped in double quotes, missing and nil values as
// "". Quotes and commas inside values are not escaped. Rows are joined with
// "\n" and there is no trailing newline. No records yields "".
func DataAsCSV(records []Record) string {
	if len(records) == 0 || records[0] == nil {
		return ""
	}

	headers := make([]string, 0, records[0].Len())
	for pair := records[0].Oldest(); pair != nil; pair = pair.Next() {
		headers = append(headers, pair.Key)
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(headers, ","))

	cells := make([]string, len(headers))
	for _, rec := range records {
		for i, h := range headers {
			var v any
			if rec != nil {
				v, _ = rec.Get(h)
			}
			cells[i] = `"` + cellText(v) + `"`
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
		return fmt.Sprint(x)
	}
}

// RecordsFrom converts a JSON-encodable slice (structs, maps or ordered
// maps) into records, keeping the encoded field order.
func RecordsFrom(v any) ([]Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("records must encode as a JSON array: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec := orderedmap.New[string, any]()
		if err := json.Unmarshal(row, rec); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
