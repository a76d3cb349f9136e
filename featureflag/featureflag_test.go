package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagRebuildOnLoad)})

	t.Run("run if enabled", func(t *testing.T) {
		var runRebuild bool
		f.IfSet(FlagRebuildOnLoad, func() {
			runRebuild = true
		})
		require.True(t, runRebuild)

		var runIndexed bool
		f.IfSet(FlagIndexedPortalMatching, func() {
			runIndexed = true
		})
		require.False(t, runIndexed)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runRebuild bool
		f.IfNotSet(FlagRebuildOnLoad, func() {
			runRebuild = true
		})
		require.False(t, runRebuild)

		var runIndexed bool
		f.IfNotSet(FlagIndexedPortalMatching, func() {
			runIndexed = true
		})
		require.True(t, runIndexed)
	})
}

func TestNew(t *testing.T) {
	f := New([]string{" disable_locate_hint", "INDEXED_PORTAL_MATCHING", "UNKNOWN", ""})
	require.True(t, f.IsSet(FlagDisableLocateHint))
	require.True(t, f.IsSet(FlagIndexedPortalMatching))
	require.False(t, f.IsSet(FlagRebuildOnLoad))
	require.Equal(t, []string{"DISABLE_LOCATE_HINT", "INDEXED_PORTAL_MATCHING"}, f.Names())
}
