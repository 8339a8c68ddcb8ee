package selection

import "time"

// MidnightUTC normalizes a time to midnight UTC, keeping only the
// calendar date. Every date handled by this package goes through this
// first so no time-of-day component leaks into seeds or day math.
func MidnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateSeed converts a calendar date into a deterministic integer seed
// in YYYYMMDD form, for example 2024-01-15 -> 20240115. Seeds are
// unique per day, monotonic within a year, and not monotonic across
// year boundaries (uniqueness is all the callers need). time.Time
// always yields in-range components, so there is no error case.
func DateSeed(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// PickDailyNugget deterministically selects one nugget id for the
// given date. The candidate list must be in a stable order (the store
// orders by creation time then id) or selection will not reproduce
// across callers building the list independently.
//
// Returns ok=false on an empty candidate list; no nuggets published
// yet is a normal outcome, not an error.
func PickDailyNugget(candidates []string, date time.Time) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	rng := NewSeededRand(DateSeed(date))
	return candidates[rng.Intn(len(candidates))], true
}
