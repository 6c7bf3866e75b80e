package codec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []string{"0", "42", "-42", "3.14159", "-0.0001", "123456789.987654321", "1000000"}

	for _, s := range tests {
		s := s
		t.Run(s, func(t *testing.T) {
			t.Parallel()

			d, err := decimal.NewFromString(s)
			require.NoError(t, err)

			buf := encodeNumericBinary(d)
			got, err := decodeNumericBinary(buf)
			require.NoError(t, err)
			require.True(t, d.Equal(got), "want %s got %s", d, got)
		})
	}
}

func TestNumeric_SizeOfMatchesEncode(t *testing.T) {
	t.Parallel()

	v := Numeric(decimal.RequireFromString("1234.5678"))
	buf := v.Encode(nil)
	require.Equal(t, v.SizeOf(), len(buf))
}
