package rules

import "time"

// MatchTTL is the no-message lifetime of a match. Expiry is fixed at
// creation time and never extended.
const MatchTTL = 24 * time.Hour

func MatchExpiry(matchedAt time.Time) time.Time {
	return matchedAt.Add(MatchTTL)
}

// Expired reports whether a match with the given expiry and activity
// counter is eligible for the sweep. Any recorded message exempts the
// match permanently.
func Expired(expiresAt time.Time, messageCount int, now time.Time) bool {
	return messageCount == 0 && !expiresAt.After(now)
}
