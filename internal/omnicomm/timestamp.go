package omnicomm

import "time"

// msEpochCutoff separates plausible epoch-seconds values from
// epoch-milliseconds ones. 1e10 seconds is year 2286, so anything above it
// is assumed to be milliseconds.
const msEpochCutoff = 10_000_000_000

// NormalizeTimestamp converts a provider epoch value into a time.Time. The
// provider mixes seconds and milliseconds across endpoints with no
// contractual marker; the unit is inferred from magnitude. This heuristic is
// a known fragility and is deliberately confined to this one function.
func NormalizeTimestamp(v int64) time.Time {
	if v > msEpochCutoff {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}
