// Package freshness holds the single freshness window shared by the staleness policy and
// the change-check rate limiter.
package freshness

import "time"

// Window is the maximum age of cached schedule data and the minimum spacing between
// remote change-checks.
const Window = 15 * time.Minute

// IsStale reports whether data last fetched at lastUpdatedMs (Unix milliseconds) is older
// than Window at now. Never-fetched data (nil or zero) is always stale.
func IsStale(lastUpdatedMs *int64, now time.Time) bool {
	if lastUpdatedMs == nil || *lastUpdatedMs == 0 {
		return true
	}
	return now.UnixMilli()-*lastUpdatedMs > Window.Milliseconds()
}
