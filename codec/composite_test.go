package codec

import (
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pgpipe/oidmap"
)

type employeeKey struct{}

func TestCompositeRoundTrip_AnonymousTuple(t *testing.T) {
	t.Parallel()

	reg := oidmap.New()
	comp, err := NewComposite(nil, reg, String("Jane"), String("555-1"))
	require.NoError(t, err)

	buf := comp.Encode(make([]byte, 0, comp.SizeOf()))
	require.Len(t, buf, comp.SizeOf())

	members, err := DecodeComposite(buf, nil)
	require.NoError(t, err)
	require.Len(t, members, 2)

	name, err := DecodeString(members[0].Payload)
	require.NoError(t, err)
	require.Equal(t, "Jane", name)
}

func TestCompositeRoundTrip_NamedType(t *testing.T) {
	t.Parallel()

	reg := oidmap.New()
	reg.Register(employeeKey{}, "employee")
	reg.Resolve("employee", 16411, 16412)

	comp, err := NewComposite(employeeKey{}, reg, String("Tom"), String("555-2"))
	require.NoError(t, err)

	resolvedOID, err := comp.OID(reg)
	require.NoError(t, err)
	require.Equal(t, oid.Oid(16411), resolvedOID)

	buf := comp.Encode(make([]byte, 0, comp.SizeOf()))
	expected := []ExpectedMember{
		{Name: "name", OID: builtinOIDMust(t, oidmap.KindString)},
		{Name: "phone", OID: builtinOIDMust(t, oidmap.KindString)},
	}
	members, err := DecodeComposite(buf, expected)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestDecodeComposite_RejectsWrongMemberCount(t *testing.T) {
	t.Parallel()

	reg := oidmap.New()
	comp, err := NewComposite(nil, reg, String("only one"))
	require.NoError(t, err)
	buf := comp.Encode(make([]byte, 0, comp.SizeOf()))

	_, err = DecodeComposite(buf, []ExpectedMember{{Name: "a"}, {Name: "b"}})
	require.Error(t, err)
}

func TestDecodeComposite_NullMember(t *testing.T) {
	t.Parallel()

	reg := oidmap.New()
	comp, err := NewComposite(nil, reg, String("a"), Null{})
	require.NoError(t, err)
	buf := comp.Encode(make([]byte, 0, comp.SizeOf()))

	members, err := DecodeComposite(buf, nil)
	require.NoError(t, err)
	require.Nil(t, members[1].Payload)
}

func builtinOIDMust(t *testing.T, kind oidmap.Kind) oid.Oid {
	t.Helper()
	pair, ok := oidmap.Builtin[kind]
	require.True(t, ok)
	return pair.Scalar
}
