package codes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code Code
		want Numeric
	}{
		{"successful completion", SuccessfulCompletion, 0},
		{"unique violation", UniqueViolation, 3505685},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ToNumeric(tt.code)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.code, Code(mustDigits(t, got)))
		})
	}
}

// mustDigits rebuilds the five-character code from its numeric encoding,
// verifying ToNumeric is a lossless bijection over valid SQLSTATEs.
func mustDigits(t *testing.T, n Numeric) string {
	t.Helper()

	var out [5]byte
	v := uint64(n)
	for i := 4; i >= 0; i-- {
		digit := v % 36
		v /= 36
		if digit < 10 {
			out[i] = byte('0' + digit)
		} else {
			out[i] = byte('A' + digit - 10)
		}
	}
	return string(out[:])
}

func TestToNumeric_DifferentCodesDifferentNumbers(t *testing.T) {
	t.Parallel()

	a, err := ToNumeric(UniqueViolation)
	require.NoError(t, err)

	b, err := ToNumeric(ForeignKeyViolation)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestToNumeric_RejectsWrongLength(t *testing.T) {
	t.Parallel()

	_, err := ToNumeric(Code("abc"))
	require.Error(t, err)
}

func TestToNumeric_RejectsInvalidCharacter(t *testing.T) {
	t.Parallel()

	_, err := ToNumeric(Code("4200!"))
	require.Error(t, err)
}

func TestCodeString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "42501", InsufficientPrivilege.String())
}
