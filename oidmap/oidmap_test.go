package oidmap

import (
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/require"
)

type employeeType struct{}

func TestRegisterLookupResolve(t *testing.T) {
	t.Parallel()

	m := New()
	key := employeeType{}
	m.Register(key, "employee")

	info, ok := m.Lookup(key)
	require.True(t, ok)
	require.False(t, info.Known)
	require.Equal(t, "employee", info.Name)

	m.Resolve("employee", 16411, 16412)

	info, ok = m.Lookup(key)
	require.True(t, ok)
	require.True(t, info.Known)
	require.Equal(t, oid.Oid(16411), info.Pair.Scalar)
	require.Equal(t, oid.Oid(16412), info.Pair.Array)
}

func TestUnresolved_DedupesNames(t *testing.T) {
	t.Parallel()

	m := New()
	k1, k2 := employeeType{}, struct{ n int }{1}
	m.Register(k1, "employee")
	m.Register(k2, "employee")

	names := m.Unresolved([]any{k1, k2})
	require.Equal(t, []string{"employee"}, names)
}

func TestUnresolved_OmitsResolvedTypes(t *testing.T) {
	t.Parallel()

	m := New()
	key := employeeType{}
	m.Register(key, "employee")
	m.Resolve("employee", 16411, 16412)

	require.Empty(t, m.Unresolved([]any{key}))
}

func TestTypeOID_ErrorsWhenUnresolved(t *testing.T) {
	t.Parallel()

	m := New()
	key := employeeType{}
	m.Register(key, "employee")

	_, err := m.TypeOID(key)
	require.Error(t, err)
}

func TestBuiltin_CoversEveryKind(t *testing.T) {
	t.Parallel()

	kinds := []Kind{
		KindBool, KindByte, KindInt16, KindInt32, KindInt64,
		KindUint32, KindFloat32, KindFloat64, KindString, KindTime, KindNumeric,
	}
	for _, k := range kinds {
		pair, ok := Builtin[k]
		require.True(t, ok, "kind %d missing from builtin table", k)
		require.NotZero(t, pair.Scalar)
		require.NotZero(t, pair.Array)
	}
}
