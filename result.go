package pgpipe

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq/oid"
)

// Result is a zero-copy view over one statement's server response,
// spec.md §3 Result / §4.3: row count, field count, per-field OID and
// name, and per-cell (data, length, is_null). Rows and Fields are
// non-owning views whose lifetime ends with the Result's, since they all
// index into the same *pgconn.Result payload.
type Result struct {
	commandTag string
	fields     []pgconn.FieldDescription
	rowValues  [][][]byte
	err        error
}

// newResult wraps a *pgconn.Result as a Result view.
func newResult(res *pgconn.Result) *Result {
	return &Result{
		commandTag: res.CommandTag.String(),
		fields:     res.FieldDescriptions,
		rowValues:  res.Rows,
	}
}

// CommandTag returns the server's command-completion tag (e.g. "INSERT 0
// 2"), present for COMMAND_OK results.
func (r *Result) CommandTag() string { return r.commandTag }

// RowCount returns the number of rows in this result.
func (r *Result) RowCount() int { return len(r.rowValues) }

// FieldCount returns the number of columns in this result.
func (r *Result) FieldCount() int { return len(r.fields) }

// FieldOID returns the OID of the i'th column.
func (r *Result) FieldOID(i int) oid.Oid {
	return oid.Oid(r.fields[i].DataTypeOID)
}

// FieldName returns the name of the i'th column.
func (r *Result) FieldName(i int) string {
	return r.fields[i].Name
}

// At returns the row at index i, range-checked (spec.md §4.3 "at(i) with
// range check").
func (r *Result) At(i int) (Row, error) {
	if i < 0 || i >= len(r.rowValues) {
		return Row{}, fmt.Errorf("pgpipe: row index %d out of range [0, %d)", i, len(r.rowValues))
	}
	return Row{result: r, index: i}, nil
}

// Rows returns every row in the result, in server order.
func (r *Result) Rows() []Row {
	rows := make([]Row, len(r.rowValues))
	for i := range r.rowValues {
		rows[i] = Row{result: r, index: i}
	}
	return rows
}
