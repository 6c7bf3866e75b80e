package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("bool", func(t *testing.T) {
		t.Parallel()
		v := Bool(true)
		buf := v.Encode(make([]byte, 0, v.SizeOf()))
		require.Len(t, buf, v.SizeOf())
		got, err := DecodeBool(buf)
		require.NoError(t, err)
		require.True(t, got)
	})

	t.Run("int32", func(t *testing.T) {
		t.Parallel()
		v := Int32(42)
		buf := v.Encode(make([]byte, 0, v.SizeOf()))
		require.Len(t, buf, v.SizeOf())
		got, err := DecodeInt32(buf)
		require.NoError(t, err)
		require.EqualValues(t, 42, got)
	})

	t.Run("int64", func(t *testing.T) {
		t.Parallel()
		v := Int64(-123456789)
		buf := v.Encode(make([]byte, 0, v.SizeOf()))
		got, err := DecodeInt64(buf)
		require.NoError(t, err)
		require.EqualValues(t, -123456789, got)
	})

	t.Run("float64", func(t *testing.T) {
		t.Parallel()
		v := Float64(3.14159)
		buf := v.Encode(make([]byte, 0, v.SizeOf()))
		got, err := DecodeFloat64(buf)
		require.NoError(t, err)
		require.InDelta(t, 3.14159, got, 1e-9)
	})

	t.Run("string", func(t *testing.T) {
		t.Parallel()
		v := String("hello, postgres")
		buf := v.Encode(make([]byte, 0, v.SizeOf()))
		require.Equal(t, len(v), len(buf))
		got, err := DecodeString(buf)
		require.NoError(t, err)
		require.Equal(t, string(v), got)
	})

	t.Run("time", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
		v := Time(now)
		buf := v.Encode(make([]byte, 0, v.SizeOf()))
		got, err := DecodeTime(buf)
		require.NoError(t, err)
		require.True(t, now.Equal(got))
	})
}

func TestScalar_SizeOfMatchesEncodedLength(t *testing.T) {
	t.Parallel()

	values := []Value{Bool(false), Byte(7), Int16(1), Int32(1), Int64(1), Uint32(1), Float32(1), Float64(1), String("abc")}
	for _, v := range values {
		buf := v.Encode(nil)
		require.Equal(t, v.SizeOf(), len(buf))
	}
}

func TestDecodeInt32_RejectsWrongLength(t *testing.T) {
	t.Parallel()

	_, err := DecodeInt32([]byte{1, 2, 3})
	require.Error(t, err)
}
