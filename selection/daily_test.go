package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateSeed(t *testing.T) {
	require.Equal(t, int64(20240115), DateSeed(date(2024, time.January, 15)))
	require.Equal(t, int64(19991231), DateSeed(date(1999, time.December, 31)))
	require.Equal(t, int64(20240101), DateSeed(date(2024, time.January, 1)))
}

func TestDateSeedIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, time.March, 3, 1, 2, 3, 4, time.UTC)
	evening := time.Date(2024, time.March, 3, 23, 59, 59, 0, time.UTC)
	require.Equal(t, DateSeed(morning), DateSeed(evening))
}

func TestDateSeedUniqueWithinYear(t *testing.T) {
	seen := make(map[int64]string)
	d := date(2024, time.January, 1)
	for d.Year() == 2024 {
		seed := DateSeed(d)
		prev, dup := seen[seed]
		require.False(t, dup, "seed %d for %s collides with %s", seed, d, prev)
		seen[seed] = d.String()
		d = d.AddDate(0, 0, 1)
	}
}

func TestMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2024-01-15 03:00 +09:00 is 2024-01-14 18:00 UTC; the UTC date wins.
	local := time.Date(2024, time.January, 15, 3, 0, 0, 0, loc)
	require.Equal(t, date(2024, time.January, 14), MidnightUTC(local))
}

func TestPickDailyNuggetIdempotent(t *testing.T) {
	candidates := []string{"a", "b", "c"}
	day := date(2024, time.January, 15)

	first, ok := PickDailyNugget(candidates, day)
	require.True(t, ok)
	require.Contains(t, candidates, first)

	for i := 0; i < 100; i++ {
		got, ok := PickDailyNugget(candidates, day)
		require.True(t, ok)
		require.Equal(t, first, got)
	}
}

func TestPickDailyNuggetEmptyPool(t *testing.T) {
	got, ok := PickDailyNugget(nil, date(2024, time.January, 15))
	require.False(t, ok)
	require.Empty(t, got)
}

func TestPickDailyNuggetVariesAcrossDays(t *testing.T) {
	candidates := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	picks := make(map[string]bool)
	for d := 1; d <= 31; d++ {
		got, ok := PickDailyNugget(candidates, date(2024, time.January, d))
		require.True(t, ok)
		picks[got] = true
	}
	// A month of selections over eight candidates should not pin to one.
	require.Greater(t, len(picks), 1)
}
