package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoveredPair_Discovered(t *testing.T) {
	t.Parallel()

	require.True(t, DiscoveredPair{Scalar: 16411, Array: 16412}.Discovered())
	require.False(t, DiscoveredPair{Scalar: InvalidOID}.Discovered())
}
