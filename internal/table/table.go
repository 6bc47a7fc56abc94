// Package table provides the small ordered-table substrate used for
// recorded variables, measures and merged experiment output. Tables
// carry named index columns next to value columns and support an
// associative stack keyed by run id.
package table

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// ErrAggregation indicates tables that disagree incompatibly in shape
// or type for a field being merged.
var ErrAggregation = errors.New("table: incompatible tables")

// Table is an ordered table with a composite index. Cells are nil
// where a row does not carry a value for a column.
type Table struct {
	indexNames []string
	index      [][]any
	columns    []string
	cells      map[string][]any
}

// New creates an empty table with the given index and value columns.
func New(indexNames []string, columns []string) *Table {
	t := &Table{
		indexNames: slices.Clone(indexNames),
		cells:      make(map[string][]any),
	}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.index) }

// IndexNames returns the names of the index columns.
func (t *Table) IndexNames() []string { return slices.Clone(t.indexNames) }

// Columns returns the value column names in declaration order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// AddColumn declares a value column, padding existing rows with nil.
func (t *Table) AddColumn(name string) {
	if _, ok := t.cells[name]; ok {
		return
	}
	t.columns = append(t.columns, name)
	t.cells[name] = make([]any, len(t.index))
}

// Append adds one row. Columns absent from values are filled with nil;
// new columns are declared on the fly.
func (t *Table) Append(index []any, values map[string]any) error {
	if len(index) != len(t.indexNames) {
		return fmt.Errorf("table: index arity %d, want %d: %w",
			len(index), len(t.indexNames), ErrAggregation)
	}
	for name := range values {
		t.AddColumn(name)
	}
	t.index = append(t.index, slices.Clone(index))
	for _, c := range t.columns {
		t.cells[c] = append(t.cells[c], values[c])
	}
	return nil
}

// Index returns the index tuple of row i.
func (t *Table) Index(i int) []any { return slices.Clone(t.index[i]) }

// At returns the cell at row i, column name.
func (t *Table) At(i int, name string) any {
	col, ok := t.cells[name]
	if !ok {
		return nil
	}
	return col[i]
}

// Column returns all cells of a column in row order.
func (t *Table) Column(name string) []any {
	return slices.Clone(t.cells[name])
}

// Floats converts a column to float64 values. Integer cells are
// widened; any other cell type is an error.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.cells[name]
	if !ok {
		return nil, fmt.Errorf("table: no column %q", name)
	}
	out := make([]float64, len(col))
	for i, v := range col {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		case int64:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("table: column %q row %d is %T, not numeric", name, i, v)
		}
	}
	return out, nil
}

// columnType returns the type of the first non-nil cell, or nil.
func (t *Table) columnType(name string) reflect.Type {
	for _, v := range t.cells[name] {
		if v != nil {
			return reflect.TypeOf(v)
		}
	}
	return nil
}

// Stack merges tables into one, keyed by a new leading index column.
// keys[i] becomes the leading index value for every row of tables[i];
// each row's own index is retained as the secondary index. Nil tables
// are skipped, so a field present in only a subset of runs merges over
// only that subset. The merge is associative over the key order the
// caller supplies. Tables whose index shapes or column types disagree
// fail with [ErrAggregation].
func Stack(keyName string, keys []any, tables []*Table) (*Table, error) {
	if len(keys) != len(tables) {
		return nil, fmt.Errorf("table: %d keys for %d tables: %w", len(keys), len(tables), ErrAggregation)
	}

	var live []*Table
	var liveKeys []any
	for i, tb := range tables {
		if tb != nil {
			live = append(live, tb)
			liveKeys = append(liveKeys, keys[i])
		}
	}
	if len(live) == 0 {
		return nil, nil
	}

	subIndex := live[0].indexNames
	colTypes := make(map[string]reflect.Type)
	var columns []string
	for _, tb := range live {
		if !slices.Equal(tb.indexNames, subIndex) {
			return nil, fmt.Errorf("table: index %v vs %v: %w", tb.indexNames, subIndex, ErrAggregation)
		}
		for _, c := range tb.columns {
			ct := tb.columnType(c)
			prev, seen := colTypes[c]
			if !seen {
				columns = append(columns, c)
				colTypes[c] = ct
				continue
			}
			if prev == nil {
				colTypes[c] = ct
			} else if ct != nil && ct != prev {
				return nil, fmt.Errorf("table: column %q is %v in one run and %v in another: %w",
					c, prev, ct, ErrAggregation)
			}
		}
	}

	merged := New(append([]string{keyName}, subIndex...), columns)
	for i, tb := range live {
		for r := 0; r < tb.Len(); r++ {
			row := make(map[string]any, len(tb.columns))
			for _, c := range tb.columns {
				row[c] = tb.cells[c][r]
			}
			idx := append([]any{liveKeys[i]}, tb.index[r]...)
			if err := merged.Append(idx, row); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}
