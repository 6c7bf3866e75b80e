package codec

import "github.com/lib/pq/oid"

// DiscoveryQuery is the synchronous sub-query the driver issues when a
// parameter's shape references a user-defined composite type not yet
// present in the OID map, spec.md §4.2 Discovery / §6 Server discovery
// query. $1 is a text[] of candidate type names.
const DiscoveryQuery = `SELECT to_regtype(t)::oid, to_regtype(t || '[]')::oid
FROM UNNEST($1::text[]) AS t`

// InvalidOID is the zero OID, which never names a real type. When no such
// type exists on the server, to_regtype yields SQL NULL (not 0); the driver
// treats a NULL cell and InvalidOID alike as "not found".
const InvalidOID oid.Oid = 0

// DiscoveredPair is one row of the discovery query's result: the scalar
// and array OIDs resolved for one candidate name, in the same order the
// names were submitted.
type DiscoveredPair struct {
	Scalar oid.Oid
	Array  oid.Oid
}

// Discovered reports whether a DiscoveryQuery result row found a real type
// (InvalidOID means to_regtype matched nothing).
func (p DiscoveredPair) Discovered() bool {
	return p.Scalar != InvalidOID
}
