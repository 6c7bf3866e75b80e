// Package codec implements the binary wire format for PostgreSQL scalar,
// array, and composite values: spec.md §4.2. It has no knowledge of
// sockets or the connection driver — it only turns Go values into framed
// binary payloads and back.
package codec

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq/oid"

	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// Value is the capability set spec.md §9's "Polymorphic parameter lists"
// design note calls for: a value that knows its own encoded size, can
// write itself into a buffer, and can resolve its own wire OID against a
// type registry. Every built-in scalar, Array, and Composite in this
// package implements it.
type Value interface {
	// SizeOf returns the exact number of bytes Encode will write — the
	// parameter packer uses it to reserve space up front (spec.md §4.2
	// "Size precomputation").
	SizeOf() int

	// Encode appends this value's wire payload to buf.
	Encode(buf []byte) []byte

	// OID resolves this value's wire type OID, consulting reg for
	// user-defined composites. Built-ins never need reg and ignore it.
	OID(reg *oidmap.Map) (oid.Oid, error)
}

// Null is the Value representing an explicit SQL NULL: OID 0, length 0, no
// payload (spec.md §3 Parameter set, §4.3 nulls).
type Null struct{}

func (Null) SizeOf() int                             { return 0 }
func (Null) Encode(buf []byte) []byte                 { return buf }
func (Null) OID(*oidmap.Map) (oid.Oid, error)         { return 0, nil }

// FieldDescription mirrors the column metadata the server sends in a
// RowDescription, reused here as pgconn.FieldDescription so this package
// shares vocabulary with the connection driver without re-declaring it.
type FieldDescription = pgconn.FieldDescription
