package event

import "time"

// Window boundaries before the scheduled instant.
const (
	Window24 = 24 * time.Hour
	Window4  = 4 * time.Hour
	Window1  = 1 * time.Hour
)

// Classify maps a remaining duration to the tier whose half-open window holds it:
// (4h,24h] tier24, (1h,4h] tier4, (0,1h] tier1. Anything else is TierNone.
func Classify(remaining time.Duration) Tier {
	switch {
	case remaining <= 0:
		return TierNone
	case remaining <= Window1:
		return Tier1
	case remaining <= Window4:
		return Tier4
	case remaining <= Window24:
		return Tier24
	default:
		return TierNone
	}
}

// Evaluate returns the tier to fire for an event at scheduled, or TierNone.
// Only the tier of the current window is considered; windows skipped while
// nobody was polling are not backfilled. A tier fires only if it is more
// urgent than lastSent, so tiers never go backwards.
func Evaluate(scheduled, now time.Time, lastSent Tier) Tier {
	candidate := Classify(scheduled.Sub(now))
	if candidate == TierNone || !candidate.MoreUrgentThan(lastSent) {
		return TierNone
	}
	return candidate
}
