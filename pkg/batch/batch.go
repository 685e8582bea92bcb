package batch

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Batch is an ordered collection of equally sized named columns.
//
// A Batch under construction (inside a connector) is mutated through
// AddColumn and the columns' Append methods. Once returned to a caller it is
// treated as immutable.
type Batch struct {
	columns []Column
	index   map[string]int
}

// New creates an empty batch.
func New() *Batch {
	return &Batch{
		index: make(map[string]int),
	}
}

// FromColumns creates a batch from pre-built columns. All columns must have
// distinct names and equal lengths.
func FromColumns(columns ...Column) (*Batch, error) {
	b := New()
	for _, col := range columns {
		if err := b.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AddColumn appends a column to the batch. The column's length must match
// the batch's current row count unless the batch is empty.
func (b *Batch) AddColumn(col Column) error {
	if _, exists := b.index[col.Name()]; exists {
		return fmt.Errorf("duplicate column %q", col.Name())
	}
	if len(b.columns) > 0 && col.Len() != b.Rows() {
		return fmt.Errorf("column %q has %d rows, batch has %d", col.Name(), col.Len(), b.Rows())
	}
	b.index[col.Name()] = len(b.columns)
	b.columns = append(b.columns, col)
	return nil
}

// Rows returns the row count shared by every column.
func (b *Batch) Rows() int {
	if len(b.columns) == 0 {
		return 0
	}
	return b.columns[0].Len()
}

// NumColumns returns the number of columns.
func (b *Batch) NumColumns() int {
	return len(b.columns)
}

// Columns returns the columns in order.
func (b *Batch) Columns() []Column {
	return b.columns
}

// ColumnNames returns the column names in order.
func (b *Batch) ColumnNames() []string {
	names := make([]string, len(b.columns))
	for i, col := range b.columns {
		names[i] = col.Name()
	}
	return names
}

// Column returns the named column, or nil when absent.
func (b *Batch) Column(name string) Column {
	i, ok := b.index[name]
	if !ok {
		return nil
	}
	return b.columns[i]
}

// Value returns the value at (column name, row), or nil when null.
// Panics when the column does not exist or the row is out of range: batches
// are built by this library, so a bad coordinate is a bookkeeping bug in the
// caller, not backend behavior.
func (b *Batch) Value(name string, row int) interface{} {
	col := b.Column(name)
	if col == nil {
		panic(fmt.Sprintf("batch: no column %q", name))
	}
	return col.Get(row)
}

// checkInvariant panics when column lengths diverge. Divergence can only be
// produced by a bug in this library's own construction code.
func (b *Batch) checkInvariant() {
	rows := b.Rows()
	for _, col := range b.columns {
		if col.Len() != rows {
			panic(fmt.Sprintf("batch: column %q has %d rows, expected %d", col.Name(), col.Len(), rows))
		}
	}
}

// MarshalJSON encodes the batch as an object mapping each column name to
// its value array. JSON objects carry no order; callers needing column
// order use ColumnNames.
func (b *Batch) MarshalJSON() ([]byte, error) {
	b.checkInvariant()
	out := make(map[string][]interface{}, len(b.columns))
	for _, col := range b.columns {
		values := make([]interface{}, col.Len())
		for i := 0; i < col.Len(); i++ {
			values[i] = col.Get(i)
		}
		out[col.Name()] = values
	}
	return json.Marshal(out)
}
