// Package streak implements the daily-visit state machine. RecordVisit
// is a pure transition function: it never touches the store, never
// errors, and leaves persistence (a single conditional upsert per
// event) to the caller.
package streak

import "time"

// Milestones are the streak lengths worth celebrating. A milestone
// fires only when the new streak equals one exactly; a user whose data
// skips a value never retroactively celebrates it.
var Milestones = []int{7, 14, 30, 60, 100, 365}

// State is a user's streak record as read from the store.
type State struct {
	CurrentStreak int
	LongestStreak int
	LastVisitDate *time.Time
	TotalVisits   int
}

// Update is the result of applying a visit to a State.
type Update struct {
	State
	// Maintained is true when the streak continued: same-day revisit
	// or a consecutive-day visit.
	Maintained bool
	// Broken is true when a gap reset a streak that was longer than 1.
	Broken bool
	// NewStreak is true when a fresh streak started: first visit ever
	// or the visit after a break.
	NewStreak bool
	// Milestone is the milestone crossed by this visit, 0 for none.
	Milestone int
}

// RecordVisit computes the streak transition for a visit on day. The
// day is normalized to its UTC calendar date before any comparison.
//
// A repeat visit on the already-recorded day is a no-op. A visit one
// day after the last extends the streak. Any other gap, including a
// negative one from clock skew or timezone anomalies, resets the
// streak to 1 rather than erroring.
func RecordVisit(s State, day time.Time) Update {
	today := midnightUTC(day)

	u := Update{State: s}
	u.LastVisitDate = &today
	u.TotalVisits = s.TotalVisits + 1

	if s.LastVisitDate == nil {
		u.CurrentStreak = 1
		u.NewStreak = true
	} else {
		switch gap := daysBetween(midnightUTC(*s.LastVisitDate), today); {
		case gap == 0:
			// Revisit on the already-recorded day changes nothing, no
			// matter how many times it happens.
			return Update{State: s, Maintained: true}
		case gap == 1:
			u.CurrentStreak = s.CurrentStreak + 1
			u.Maintained = true
		default:
			u.CurrentStreak = 1
			u.Broken = s.CurrentStreak > 1
			u.NewStreak = true
		}
	}

	if u.CurrentStreak > u.LongestStreak {
		u.LongestStreak = u.CurrentStreak
	}

	for _, m := range Milestones {
		if u.CurrentStreak == m {
			u.Milestone = m
			break
		}
	}

	return u
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole-day difference to - from. Both inputs
// are already midnight UTC so the division is exact.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
