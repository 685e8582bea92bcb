// Package batch provides the columnar in-memory representation exchanged
// between unidb connectors and their callers. A batch is an ordered sequence
// of named, independently typed columns sharing one row count. Connectors
// build batches when reading; after a batch is returned to the caller it is
// never mutated.
package batch

import (
	"fmt"
	"time"
)

// ColumnType represents the concrete value type of a column.
type ColumnType int

const (
	TypeInt64 ColumnType = iota
	TypeFloat64
	TypeString
	TypeBool
	TypeDate
	TypeTimestamp
	TypeBytes
	// TypeNull marks a column whose every value is null, used when the
	// backend reports no usable type information for a column.
	TypeNull
)

// String returns the lowercase name of the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeBytes:
		return "bytes"
	case TypeNull:
		return "null"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Column is a named, typed sequence of values with per-value null tracking.
type Column interface {
	Name() string
	Type() ColumnType
	Len() int
	// Get returns the value at row i, or nil when the value is null.
	// Value types per column type: int64, float64, string, bool,
	// time.Time (date and timestamp), []byte.
	Get(i int) interface{}
	IsNull(i int) bool
	// Append adds a value. nil appends a null. The concrete type must match
	// the column type.
	Append(value interface{}) error
}

// Int64Column stores 64-bit integers.
type Int64Column struct {
	name   string
	values []int64
	valid  []bool
}

// NewInt64Column creates an empty int64 column.
func NewInt64Column(name string) *Int64Column {
	return &Int64Column{name: name}
}

func (c *Int64Column) Name() string     { return c.name }
func (c *Int64Column) Type() ColumnType { return TypeInt64 }
func (c *Int64Column) Len() int         { return len(c.values) }
func (c *Int64Column) IsNull(i int) bool {
	return !c.valid[i]
}

func (c *Int64Column) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *Int64Column) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, 0)
		c.valid = append(c.valid, false)
		return nil
	}
	var v int64
	switch x := value.(type) {
	case int64:
		v = x
	case int32:
		v = int64(x)
	case int16:
		v = int64(x)
	case int8:
		v = int64(x)
	case int:
		v = int64(x)
	default:
		return fmt.Errorf("column %s: expected integer, got %T", c.name, value)
	}
	c.values = append(c.values, v)
	c.valid = append(c.valid, true)
	return nil
}

// Float64Column stores 64-bit floats. Arbitrary-precision decimals from the
// backend are narrowed to float64; the precision loss is accepted.
type Float64Column struct {
	name   string
	values []float64
	valid  []bool
}

// NewFloat64Column creates an empty float64 column.
func NewFloat64Column(name string) *Float64Column {
	return &Float64Column{name: name}
}

func (c *Float64Column) Name() string      { return c.name }
func (c *Float64Column) Type() ColumnType  { return TypeFloat64 }
func (c *Float64Column) Len() int          { return len(c.values) }
func (c *Float64Column) IsNull(i int) bool { return !c.valid[i] }

func (c *Float64Column) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *Float64Column) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, 0)
		c.valid = append(c.valid, false)
		return nil
	}
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	default:
		return fmt.Errorf("column %s: expected float, got %T", c.name, value)
	}
	c.values = append(c.values, v)
	c.valid = append(c.valid, true)
	return nil
}

// StringColumn stores UTF-8 text. It is also the fallback representation for
// backend types unidb does not recognize.
type StringColumn struct {
	name   string
	values []string
	valid  []bool
}

// NewStringColumn creates an empty string column.
func NewStringColumn(name string) *StringColumn {
	return &StringColumn{name: name}
}

func (c *StringColumn) Name() string      { return c.name }
func (c *StringColumn) Type() ColumnType  { return TypeString }
func (c *StringColumn) Len() int          { return len(c.values) }
func (c *StringColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *StringColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *StringColumn) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, "")
		c.valid = append(c.valid, false)
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("column %s: expected string, got %T", c.name, value)
	}
	c.values = append(c.values, s)
	c.valid = append(c.valid, true)
	return nil
}

// BoolColumn stores booleans.
type BoolColumn struct {
	name   string
	values []bool
	valid  []bool
}

// NewBoolColumn creates an empty bool column.
func NewBoolColumn(name string) *BoolColumn {
	return &BoolColumn{name: name}
}

func (c *BoolColumn) Name() string      { return c.name }
func (c *BoolColumn) Type() ColumnType  { return TypeBool }
func (c *BoolColumn) Len() int          { return len(c.values) }
func (c *BoolColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *BoolColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *BoolColumn) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, false)
		c.valid = append(c.valid, false)
		return nil
	}
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("column %s: expected bool, got %T", c.name, value)
	}
	c.values = append(c.values, b)
	c.valid = append(c.valid, true)
	return nil
}

// TimeColumn stores dates or timestamps as time.Time values. The kind field
// distinguishes TypeDate from TypeTimestamp; date values are normalized to
// midnight UTC.
type TimeColumn struct {
	name   string
	kind   ColumnType
	values []time.Time
	valid  []bool
}

// NewDateColumn creates an empty date column.
func NewDateColumn(name string) *TimeColumn {
	return &TimeColumn{name: name, kind: TypeDate}
}

// NewTimestampColumn creates an empty timestamp column.
func NewTimestampColumn(name string) *TimeColumn {
	return &TimeColumn{name: name, kind: TypeTimestamp}
}

func (c *TimeColumn) Name() string      { return c.name }
func (c *TimeColumn) Type() ColumnType  { return c.kind }
func (c *TimeColumn) Len() int          { return len(c.values) }
func (c *TimeColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *TimeColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *TimeColumn) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, time.Time{})
		c.valid = append(c.valid, false)
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("column %s: expected time.Time, got %T", c.name, value)
	}
	if c.kind == TypeDate {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	c.values = append(c.values, t)
	c.valid = append(c.valid, true)
	return nil
}

// BytesColumn stores raw binary values.
type BytesColumn struct {
	name   string
	values [][]byte
	valid  []bool
}

// NewBytesColumn creates an empty bytes column.
func NewBytesColumn(name string) *BytesColumn {
	return &BytesColumn{name: name}
}

func (c *BytesColumn) Name() string      { return c.name }
func (c *BytesColumn) Type() ColumnType  { return TypeBytes }
func (c *BytesColumn) Len() int          { return len(c.values) }
func (c *BytesColumn) IsNull(i int) bool { return !c.valid[i] }

func (c *BytesColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

func (c *BytesColumn) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, nil)
		c.valid = append(c.valid, false)
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("column %s: expected []byte, got %T", c.name, value)
	}
	c.values = append(c.values, b)
	c.valid = append(c.valid, true)
	return nil
}

// NullColumn stores only nulls, tracking length.
type NullColumn struct {
	name  string
	count int
}

// NewNullColumn creates an empty null-only column.
func NewNullColumn(name string) *NullColumn {
	return &NullColumn{name: name}
}

func (c *NullColumn) Name() string          { return c.name }
func (c *NullColumn) Type() ColumnType      { return TypeNull }
func (c *NullColumn) Len() int              { return c.count }
func (c *NullColumn) IsNull(i int) bool     { return true }
func (c *NullColumn) Get(i int) interface{} { return nil }

func (c *NullColumn) Append(value interface{}) error {
	if value != nil {
		return fmt.Errorf("column %s: null column accepts only nulls, got %T", c.name, value)
	}
	c.count++
	return nil
}

// NewColumn creates an empty column of the given type.
func NewColumn(name string, t ColumnType) Column {
	switch t {
	case TypeInt64:
		return NewInt64Column(name)
	case TypeFloat64:
		return NewFloat64Column(name)
	case TypeBool:
		return NewBoolColumn(name)
	case TypeDate:
		return NewDateColumn(name)
	case TypeTimestamp:
		return NewTimestampColumn(name)
	case TypeBytes:
		return NewBytesColumn(name)
	case TypeNull:
		return NewNullColumn(name)
	default:
		return NewStringColumn(name)
	}
}
