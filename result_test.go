package pgpipe

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return newResult(&pgconn.Result{
		FieldDescriptions: []pgconn.FieldDescription{
			{Name: "id", DataTypeOID: 23},
			{Name: "name", DataTypeOID: 25},
		},
		Rows: [][][]byte{
			{[]byte{0, 0, 0, 42}, []byte("Jane")},
			{[]byte{0, 0, 0, 43}, nil},
		},
	})
}

func TestResult_CountsAndMetadata(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	require.Equal(t, 2, r.RowCount())
	require.Equal(t, 2, r.FieldCount())
	require.Equal(t, "id", r.FieldName(0))
	require.EqualValues(t, 25, r.FieldOID(1))
}

func TestResult_AtRangeCheck(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	_, err := r.At(2)
	require.Error(t, err)

	row, err := r.At(0)
	require.NoError(t, err)
	require.Equal(t, 2, row.Size())
}

func TestRow_AtAndNamed(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	row, err := r.At(0)
	require.NoError(t, err)

	field, err := row.At(0)
	require.NoError(t, err)
	got, err := AsInt32(field)
	require.NoError(t, err)
	require.EqualValues(t, 42, got)

	named, err := row.Named("name")
	require.NoError(t, err)
	str, err := AsString(named)
	require.NoError(t, err)
	require.Equal(t, "Jane", str)

	_, err = row.Named("missing")
	require.Error(t, err)
}

func TestField_IsNull(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	row, err := r.At(1)
	require.NoError(t, err)

	field, err := row.At(1)
	require.NoError(t, err)
	require.True(t, field.IsNull())
}

func TestAsInt32_RejectsWrongOID(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	row, _ := r.At(0)
	field, _ := row.At(1) // "name" column, OID 25 (text), not int4

	_, err := AsInt32(field)
	require.Error(t, err)
}
