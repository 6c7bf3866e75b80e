package oidmap

import (
	"fmt"
	"sync"

	"github.com/lib/pq/oid"
)

// TypeInfo records a user-defined composite type's server name and, once
// discovered, its (scalar_oid, array_oid) pair. Mirrors
// original_source/include/psql/oid_map.hpp's pg_type_info.
type TypeInfo struct {
	Name  string
	Pair  Pair
	Known bool
}

// Map is the runtime type registry: a mapping from a stable type key (the
// application's own type token, e.g. a Go reflect.Type or a user-chosen
// string) to a TypeInfo. Register adds an entry without OIDs; the entry
// carries an OID pair only after Resolve folds in a successful discovery.
type Map struct {
	mu    sync.RWMutex
	types map[any]*TypeInfo
}

// New returns an empty type registry.
func New() *Map {
	return &Map{types: make(map[any]*TypeInfo)}
}

// Register declares a user-defined composite type under key, identified on
// the server by name. It is unknown (no OIDs) until Resolve folds in a
// discovery result.
func (m *Map) Register(key any, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.types[key]; ok {
		return
	}
	m.types[key] = &TypeInfo{Name: name}
}

// Lookup returns the TypeInfo registered under key.
func (m *Map) Lookup(key any) (TypeInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.types[key]
	if !ok {
		return TypeInfo{}, false
	}
	return *info, true
}

// Unresolved returns the server-side names of every registered type that
// has not yet had its OIDs discovered — the set the driver must fold into
// a to_regtype discovery query before submitting a request referencing
// them (spec.md §4.2 Discovery).
func (m *Map) Unresolved(keys []any) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	seen := make(map[string]bool)
	for _, key := range keys {
		info, ok := m.types[key]
		if !ok || info.Known {
			continue
		}
		if seen[info.Name] {
			continue
		}
		seen[info.Name] = true
		names = append(names, info.Name)
	}
	return names
}

// Resolve folds a discovered (scalar_oid, array_oid) pair into every
// registered type whose server name matches. It does not check the OIDs;
// the driver's discoverTypes returns xerrors.UserDefinedTypeDoesNotExist
// for a name the server does not know instead of calling Resolve.
func (m *Map) Resolve(name string, scalarOID, arrayOID oid.Oid) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, info := range m.types {
		if info.Name == name {
			info.Pair = Pair{Scalar: scalarOID, Array: arrayOID}
			info.Known = true
		}
	}
}

// TypeOID returns the scalar OID registered under key.
func (m *Map) TypeOID(key any) (oid.Oid, error) {
	info, ok := m.Lookup(key)
	if !ok || !info.Known {
		return 0, fmt.Errorf("oidmap: no resolved type registered under %v", key)
	}
	return info.Pair.Scalar, nil
}

// ArrayOID returns the array OID registered under key.
func (m *Map) ArrayOID(key any) (oid.Oid, error) {
	info, ok := m.Lookup(key)
	if !ok || !info.Known {
		return 0, fmt.Errorf("oidmap: no resolved type registered under %v", key)
	}
	return info.Pair.Array, nil
}

// Names returns the server-side names of every registered type, resolved
// or not. The driver's discovery query takes its names from Unresolved, not
// from Names.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.types))
	for _, info := range m.types {
		names = append(names, info.Name)
	}
	return names
}
