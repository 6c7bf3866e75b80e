package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/lib/pq/oid"
	"github.com/shopspring/decimal"

	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// pgEpochOffsetMicros is the number of microseconds between the Unix epoch
// and the PostgreSQL epoch (2000-01-01 00:00:00Z), spec.md §4.2.
const pgEpochOffsetMicros int64 = 946_684_800_000_000

func builtinOID(kind oidmap.Kind) (oid.Oid, error) {
	pair, ok := oidmap.Builtin[kind]
	if !ok {
		return 0, fmt.Errorf("codec: no builtin oid registered for kind %d", kind)
	}
	return pair.Scalar, nil
}

func builtinArrayOID(kind oidmap.Kind) (oid.Oid, error) {
	pair, ok := oidmap.Builtin[kind]
	if !ok {
		return 0, fmt.Errorf("codec: no builtin oid registered for kind %d", kind)
	}
	return pair.Array, nil
}

// Bool is a binary-encoded boolean: one byte, 0x00 or 0x01.
type Bool bool

func (v Bool) SizeOf() int { return 1 }
func (v Bool) Encode(buf []byte) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}
func (Bool) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindBool) }

// DecodeBool reads a one-byte boolean cell.
func DecodeBool(data []byte) (bool, error) {
	if len(data) != 1 {
		return false, fmt.Errorf("codec: bool cell must be 1 byte, got %d", len(data))
	}
	return data[0] != 0, nil
}

// Byte is a single raw byte ("char" in Postgres terms).
type Byte byte

func (v Byte) SizeOf() int                    { return 1 }
func (v Byte) Encode(buf []byte) []byte       { return append(buf, byte(v)) }
func (Byte) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindByte) }

func DecodeByte(data []byte) (byte, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("codec: byte cell must be 1 byte, got %d", len(data))
	}
	return data[0], nil
}

// Int16 is a big-endian int16 scalar.
type Int16 int16

func (v Int16) SizeOf() int { return 2 }
func (v Int16) Encode(buf []byte) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	return append(buf, tmp[:]...)
}
func (Int16) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindInt16) }

func DecodeInt16(data []byte) (int16, error) {
	if len(data) != 2 {
		return 0, fmt.Errorf("codec: int2 cell must be 2 bytes, got %d", len(data))
	}
	return int16(binary.BigEndian.Uint16(data)), nil
}

// Int32 is a big-endian int32 scalar.
type Int32 int32

func (v Int32) SizeOf() int { return 4 }
func (v Int32) Encode(buf []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}
func (Int32) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindInt32) }

func DecodeInt32(data []byte) (int32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("codec: int4 cell must be 4 bytes, got %d", len(data))
	}
	return int32(binary.BigEndian.Uint32(data)), nil
}

// Int64 is a big-endian int64 scalar.
type Int64 int64

func (v Int64) SizeOf() int { return 8 }
func (v Int64) Encode(buf []byte) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}
func (Int64) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindInt64) }

func DecodeInt64(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("codec: int8 cell must be 8 bytes, got %d", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// Uint32 is a big-endian uint32 scalar, used for the Postgres OID type
// itself among others.
type Uint32 uint32

func (v Uint32) SizeOf() int { return 4 }
func (v Uint32) Encode(buf []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}
func (Uint32) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindUint32) }

func DecodeUint32(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("codec: uint32 cell must be 4 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// Float32 is a big-endian IEEE-754 single-precision scalar.
type Float32 float32

func (v Float32) SizeOf() int { return 4 }
func (v Float32) Encode(buf []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(float32(v)))
	return append(buf, tmp[:]...)
}
func (Float32) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindFloat32) }

func DecodeFloat32(data []byte) (float32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("codec: float4 cell must be 4 bytes, got %d", len(data))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
}

// Float64 is a big-endian IEEE-754 double-precision scalar.
type Float64 float64

func (v Float64) SizeOf() int { return 8 }
func (v Float64) Encode(buf []byte) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(float64(v)))
	return append(buf, tmp[:]...)
}
func (Float64) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindFloat64) }

func DecodeFloat64(data []byte) (float64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("codec: float8 cell must be 8 bytes, got %d", len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

// String is a raw UTF-8 payload without a terminator.
type String string

func (v String) SizeOf() int                    { return len(v) }
func (v String) Encode(buf []byte) []byte       { return append(buf, v...) }
func (String) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindString) }

func DecodeString(data []byte) (string, error) {
	return string(data), nil
}

// Time is a microsecond-resolution timestamp, spec.md §4.2's 64-bit
// microseconds-since-2000-01-01 atom.
type Time time.Time

func (v Time) SizeOf() int { return 8 }
func (v Time) Encode(buf []byte) []byte {
	micros := time.Time(v).UnixMicro() - pgEpochOffsetMicros
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(micros))
	return append(buf, tmp[:]...)
}
func (Time) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindTime) }

func DecodeTime(data []byte) (time.Time, error) {
	if len(data) != 8 {
		return time.Time{}, fmt.Errorf("codec: timestamp cell must be 8 bytes, got %d", len(data))
	}
	micros := int64(binary.BigEndian.Uint64(data))
	return time.UnixMicro(micros + pgEpochOffsetMicros).UTC(), nil
}

// Numeric bridges github.com/shopspring/decimal into the binary numeric
// wire format via pgtype's own numeric codec, per SPEC_FULL.md §1b's
// domain-stack wiring of shopspring/decimal.
type Numeric decimal.Decimal

func (v Numeric) SizeOf() int {
	return len(encodeNumericBinary(decimal.Decimal(v)))
}
func (v Numeric) Encode(buf []byte) []byte {
	return append(buf, encodeNumericBinary(decimal.Decimal(v))...)
}
func (Numeric) OID(*oidmap.Map) (oid.Oid, error) { return builtinOID(oidmap.KindNumeric) }

func DecodeNumeric(data []byte) (decimal.Decimal, error) {
	return decodeNumericBinary(data)
}
