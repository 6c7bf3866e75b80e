package pgpipe

import (
	"fmt"
	"time"

	"github.com/lib/pq/oid"
	"github.com/shopspring/decimal"

	"github.com/jeroenrinzema/pgpipe/codec"
	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// Field is a zero-copy view over one cell of a Row, spec.md §4.3: OID,
// name, and (data, size, is_null).
type Field struct {
	row Row
	col int
}

// OID returns the field's wire type OID.
func (f Field) OID() oid.Oid {
	return f.row.result.FieldOID(f.col)
}

// Name returns the field's column name.
func (f Field) Name() string {
	return f.row.result.FieldName(f.col)
}

// Data returns the field's raw payload, or nil if the cell is SQL NULL.
func (f Field) Data() []byte {
	return f.row.result.rowValues[f.row.index][f.col]
}

// Len returns the byte length of the field's payload, 0 if null.
func (f Field) Len() int {
	return len(f.Data())
}

// IsNull reports whether the cell is SQL NULL.
func (f Field) IsNull() bool {
	return f.Data() == nil
}

// verifyOID implements spec.md §4.3's "as<T>(field, oid_map)" rule: the
// field's OID must match want, unless either side is 0 (0 on the expected
// side means "user-defined but unregistered in this code path").
func verifyOID(f Field, want oid.Oid) error {
	got := f.OID()
	if want != 0 && got != 0 && got != want {
		return fmt.Errorf("pgpipe: field %q has oid %d, expected %d", f.Name(), got, want)
	}
	return nil
}

func builtinScalarOID(kind oidmap.Kind) oid.Oid {
	return oidmap.Builtin[kind].Scalar
}

// AsBool decodes the field as a binary boolean.
func AsBool(f Field) (bool, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindBool)); err != nil {
		return false, err
	}
	return codec.DecodeBool(f.Data())
}

// AsByte decodes the field as a single raw byte.
func AsByte(f Field) (byte, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindByte)); err != nil {
		return 0, err
	}
	return codec.DecodeByte(f.Data())
}

// AsInt16 decodes the field as a big-endian int16.
func AsInt16(f Field) (int16, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindInt16)); err != nil {
		return 0, err
	}
	return codec.DecodeInt16(f.Data())
}

// AsInt32 decodes the field as a big-endian int32.
func AsInt32(f Field) (int32, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindInt32)); err != nil {
		return 0, err
	}
	return codec.DecodeInt32(f.Data())
}

// AsInt64 decodes the field as a big-endian int64.
func AsInt64(f Field) (int64, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindInt64)); err != nil {
		return 0, err
	}
	return codec.DecodeInt64(f.Data())
}

// AsUint32 decodes the field as a big-endian uint32 (e.g. an OID column).
func AsUint32(f Field) (uint32, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindUint32)); err != nil {
		return 0, err
	}
	return codec.DecodeUint32(f.Data())
}

// AsFloat32 decodes the field as a big-endian IEEE-754 single float.
func AsFloat32(f Field) (float32, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindFloat32)); err != nil {
		return 0, err
	}
	return codec.DecodeFloat32(f.Data())
}

// AsFloat64 decodes the field as a big-endian IEEE-754 double float.
func AsFloat64(f Field) (float64, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindFloat64)); err != nil {
		return 0, err
	}
	return codec.DecodeFloat64(f.Data())
}

// AsString decodes the field as a raw UTF-8 string.
func AsString(f Field) (string, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindString)); err != nil {
		return "", err
	}
	return codec.DecodeString(f.Data())
}

// AsTime decodes the field as a microsecond-resolution timestamp.
func AsTime(f Field) (time.Time, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindTime)); err != nil {
		return time.Time{}, err
	}
	return codec.DecodeTime(f.Data())
}

// AsNumeric decodes the field as an arbitrary-precision decimal.
func AsNumeric(f Field) (decimal.Decimal, error) {
	if err := verifyOID(f, builtinScalarOID(oidmap.KindNumeric)); err != nil {
		return decimal.Decimal{}, err
	}
	return codec.DecodeNumeric(f.Data())
}

// AsArray decodes the field as a one-dimensional array, returning the
// element OID and each element's raw payload. Rejects multi-dimensional
// arrays with a codec error (spec.md §4.2).
func AsArray(f Field) (elemOID oid.Oid, elems [][]byte, err error) {
	return codec.DecodeArray(f.Data())
}

// AsComposite decodes the field as a composite value, validating member
// count and per-member OIDs against expected (spec.md §4.2 Deserialization
// validation). Pass a nil expected to skip validation entirely.
func AsComposite(f Field, expected []codec.ExpectedMember) ([]codec.Member, error) {
	return codec.DecodeComposite(f.Data(), expected)
}

// AsRow multi-column accessor: picks successive columns 0..n-1 of row,
// decoding each with the matching function in decoders (spec.md §4.3
// "as<T1,...,Tn>(row)").
func AsRow(row Row, decoders ...func(Field) error) error {
	for i, decode := range decoders {
		field, err := row.At(i)
		if err != nil {
			return err
		}
		if err := decode(field); err != nil {
			return fmt.Errorf("pgpipe: decoding column %d: %w", i, err)
		}
	}
	return nil
}
