package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Row maps column names to dynamically typed cell values.
//
// A missing key and a nil value are both treated as an absent cell.
type Row map[string]any

// Get returns the value stored under field, or false when the cell is absent.
func (r Row) Get(field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Present reports whether field holds a non-nil value.
func (r Row) Present(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// String returns the value of field when it is stored as a string.
func (r Row) String(field string) (string, bool) {
	v, ok := r.Get(field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Text renders the value of field as text. Absent cells render as "".
func (r Row) Text(field string) string {
	v, _ := r.Get(field)
	return FormatValue(v)
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered collection of rows with an ordered column list.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New constructs a dataset from a header and rows.
func New(columns []string, rows []Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether name is part of the column list.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends name to the column list if it is not already present.
func (d *Dataset) AddColumn(name string) bool {
	if d.HasColumn(name) {
		return false
	}
	d.Columns = append(d.Columns, name)
	return true
}

// Set writes value into row idx, introducing the column when needed.
func (d *Dataset) Set(idx int, column string, value any) {
	d.AddColumn(column)
	if d.Rows[idx] == nil {
		d.Rows[idx] = Row{}
	}
	d.Rows[idx][column] = value
}

// FormatValue renders a cell value the way it is written to tabular output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
