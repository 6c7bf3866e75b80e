package pgpipe

import "fmt"

// Row is a zero-copy view over one row of a Result, spec.md §4.3: size,
// iteration over fields, range-checked index access, and name lookup.
type Row struct {
	result *Result
	index  int
}

// Size returns the number of fields in this row.
func (row Row) Size() int {
	return row.result.FieldCount()
}

// At returns the field at column i, range-checked.
func (row Row) At(i int) (Field, error) {
	if i < 0 || i >= row.Size() {
		return Field{}, fmt.Errorf("pgpipe: field index %d out of range [0, %d)", i, row.Size())
	}
	return Field{row: row, col: i}, nil
}

// Named returns the field whose column name matches name.
func (row Row) Named(name string) (Field, error) {
	for i := 0; i < row.Size(); i++ {
		if row.result.FieldName(i) == name {
			return Field{row: row, col: i}, nil
		}
	}
	return Field{}, fmt.Errorf("pgpipe: no field named %q in this row", name)
}

// Fields returns every field of this row, in column order.
func (row Row) Fields() []Field {
	fields := make([]Field, row.Size())
	for i := range fields {
		fields[i] = Field{row: row, col: i}
	}
	return fields
}
