// Package oidmap is the codec's type registry: the compile-time table of
// built-in (scalar_oid, array_oid) pairs plus the runtime-discovered
// entries for user-defined composite types, grounded in
// original_source/include/asiofiedpq/detail/builtin.hpp and
// original_source/include/psql/oid_map.hpp.
package oidmap

import "github.com/lib/pq/oid"

// Pair is a (scalar_oid, array_oid) pair, spec.md §3's "compile-time pair".
type Pair struct {
	Scalar oid.Oid
	Array  oid.Oid
}

// Builtin holds the compile-time (scalar_oid, array_oid) table for the Go
// primitive types the codec hand-rolls, taken from
// asiofiedpq/detail/builtin.hpp's `builtin<T>` specializations.
var Builtin = map[Kind]Pair{
	KindBool:    {Scalar: oid.T_bool, Array: oid.T__bool},
	KindByte:    {Scalar: oid.T_char, Array: oid.T__char},
	KindInt16:   {Scalar: oid.T_int2, Array: oid.T__int2},
	KindInt32:   {Scalar: oid.T_int4, Array: oid.T__int4},
	KindInt64:   {Scalar: oid.T_int8, Array: oid.T__int8},
	KindUint32:  {Scalar: oid.T_oid, Array: oid.T__oid},
	KindFloat32: {Scalar: oid.T_float4, Array: oid.T__float4},
	KindFloat64: {Scalar: oid.T_float8, Array: oid.T__float8},
	KindString:  {Scalar: oid.T_text, Array: oid.T__text},
	KindTime:    {Scalar: oid.T_timestamp, Array: oid.T__timestamp},
	KindNumeric: {Scalar: oid.T_numeric, Array: oid.T__numeric},
}

// Kind identifies one of the codec's built-in scalar shapes.
type Kind int

const (
	KindBool Kind = iota
	KindByte
	KindInt16
	KindInt32
	KindInt64
	KindUint32
	KindFloat32
	KindFloat64
	KindString
	KindTime
	KindNumeric
)

// GenericRecord is the untyped "anonymous tuple" OID pair, used on the wire
// for any composite whose Go shape is a plain tuple rather than a named
// user-defined type (spec.md §4.2).
var GenericRecord = Pair{Scalar: 2249, Array: 2287}
