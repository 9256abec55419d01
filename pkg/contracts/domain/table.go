package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is a single spreadsheet record keyed by column name.
// Values are string, float64, int, int64 or nil (the missing marker).
// Column order lives on the owning Table.
type Row map[string]any

// Table is a parsed worksheet: an ordered column list plus rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is part of the schema.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the requested names that are absent from the schema,
// preserving request order.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// AddColumn appends name to the schema unless it is already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// RenameColumn renames a column in the schema and in every row.
func (t *Table) RenameColumn(from, to string) {
	if from == to {
		return
	}
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
}

// Append adds a row.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Clone returns a deep copy of the schema and rows. Values are shared,
// which is safe because every value type is immutable.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Slice returns a table sharing the schema with a cloned copy of rows[lo:hi].
func (t *Table) Slice(lo, hi int) *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, 0, hi-lo),
	}
	for _, r := range t.Rows[lo:hi] {
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// Clone copies the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsMissing reports whether field is absent, nil or blank.
func (r Row) IsMissing(field string) bool {
	return IsMissing(r[field])
}

// Text returns the trimmed string form of field; missing values read as "".
func (r Row) Text(field string) string {
	return strings.TrimSpace(Stringify(r[field]))
}

// Float parses field as a number. ok is false when the value is missing;
// err is set when a present value is not numeric.
func (r Row) Float(field string) (v float64, ok bool, err error) {
	if r.IsMissing(field) {
		return 0, false, nil
	}
	return ToFloat(r[field])
}

// ToFloat converts a cell value to float64.
func ToFloat(v any) (float64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		if math.IsNaN(x) {
			return 0, false, nil
		}
		return x, true, nil
	case float32:
		return float64(x), true, nil
	case int:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0, false, fmt.Errorf("could not convert %q to a number", s)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported value type %T", v)
	}
}

// IsMissing reports whether v is the empty marker: nil, NaN or a blank
// string.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// Stringify renders a cell value the way it is written back to a sheet.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return FormatNumber(x)
	case float32:
		return FormatNumber(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// FormatNumber renders a float with the shortest exact representation (80, 80.5).
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
