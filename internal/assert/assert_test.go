package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThat(t *testing.T) {
	require.NotPanics(t, func() { That(true, "never") })
	require.PanicsWithValue(t, "tracker 3 is drained", func() {
		That(false, "tracker %d is drained", 3)
	})
}

func TestPositive(t *testing.T) {
	require.NotPanics(t, func() { Positive(1, "capacity") })
	require.PanicsWithValue(t, "expected positive capacity, got 0", func() {
		Positive(0, "capacity")
	})
}

func TestFail(t *testing.T) {
	require.PanicsWithValue(t, "Tick on owner \"zone\"", func() {
		Fail("Tick on owner %q", "zone")
	})
}
