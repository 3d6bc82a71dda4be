package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	s := Stack()

	// the reporting caller is the first frame; files are shortened to their
	// base name outside debug builds
	require.Contains(t, s, "debug.TestStack")
	require.Contains(t, s, "debug_test.go:")
	require.NotContains(t, s, "runtime/")
}

func TestWriteStackForceClean(t *testing.T) {
	var sbb strings.Builder
	WriteStack(&sbb, true)
	for _, line := range strings.Split(sbb.String(), "\n") {
		require.False(t, strings.Contains(line, "/") && strings.Contains(line, ".go:"), line)
	}
}
