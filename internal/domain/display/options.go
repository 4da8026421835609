// Package display builds the derived project/portfolio/token trees the UI
// reads: raw positions in, sorted display entities with USD values and
// 24h-change fields out. Trees are rebuilt wholesale on every refresh; only
// the one-shot history patch mutates nodes in place, gated per node by a
// patched flag.
package display

import "fmt"

// DefaultNoiseFloorUSD is the USD-equivalent threshold under which an
// amount change is shown as zero. It suppresses dust-level churn in the
// change indicators; the numeric delta is always retained for aggregation.
const DefaultNoiseFloorUSD = 0.01

// Options carries the tunables an aggregation context owns. A zero Options
// is valid and uses the defaults.
type Options struct {
	// NoiseFloorUSD overrides DefaultNoiseFloorUSD when positive.
	NoiseFloorUSD float64
}

func (o Options) noiseFloor() float64 {
	if o.NoiseFloorUSD > 0 {
		return o.NoiseFloorUSD
	}
	return DefaultNoiseFloorUSD
}

// MergePolicy controls what happens when a pool id already exists in a
// project while inserting portfolios.
type MergePolicy int

const (
	// MergeReplace drops the previous portfolio with the same id before
	// adding the new one, so a re-fetch never double counts.
	MergeReplace MergePolicy = iota
	// MergeKeepBoth keeps both by suffixing the incoming id with its index.
	// Used for bundle contexts where the same pool legitimately appears more
	// than once (e.g. the same market held by several accounts).
	MergeKeepBoth
)

func (m MergePolicy) String() string {
	switch m {
	case MergeReplace:
		return "replace"
	case MergeKeepBoth:
		return "keep-both"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(m))
	}
}
