package passwords

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	hashed, err := Hash("pass1")
	require.NoError(t, err)
	require.NotEqual(t, "pass1", hashed)
	require.True(t, Check("pass1", hashed))
	require.False(t, Check("pass2", hashed))
}
