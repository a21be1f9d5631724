package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	t.Parallel()

	// Known vector for the empty input.
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Sum(nil))

	require.Equal(t, Sum([]byte("clear")), Sum([]byte("clear")))
	require.NotEqual(t, Sum([]byte("clear")), Sum([]byte("king")))
	require.Len(t, Sum([]byte("clear")), 64)
}
