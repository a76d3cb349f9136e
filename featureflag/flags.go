package featureflag

type Flag string

const (
	// Rebuilds portals by matching quads when loading a stored set.
	FlagRebuildOnLoad Flag = "REBUILD_ON_LOAD"

	// Matches portal quads through the spatial index instead of a full scan.
	FlagIndexedPortalMatching Flag = "INDEXED_PORTAL_MATCHING"

	// Ignores the previous positioning sent with locate queries.
	FlagDisableLocateHint Flag = "DISABLE_LOCATE_HINT"
)

var knownFlags = map[Flag]struct{}{
	FlagRebuildOnLoad:         {},
	FlagIndexedPortalMatching: {},
	FlagDisableLocateHint:     {},
}
