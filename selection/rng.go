// Package selection holds the deterministic content-selection
// algorithms: the seeded generator, the daily nugget pick, the
// anti-clustering feed shuffle and the digest scorer. Everything in
// this package is a pure function of its inputs; persistence and
// caching are the caller's concern.
package selection

// SeededRand is a linear congruential generator. Two SeededRand values
// constructed with the same seed produce identical sequences, which is
// what lets independent callers (server, email cron, clients) agree on
// the same ordering without coordination.
type SeededRand struct {
	state int64
}

// NewSeededRand returns a generator seeded with the given value.
func NewSeededRand(seed int64) *SeededRand {
	return &SeededRand{state: seed}
}

// Next advances the generator and returns a value in [0, 1).
func (r *SeededRand) Next() float64 {
	r.state = (r.state*1103515245 + 12345) & 0x7fffffff
	return float64(r.state) / float64(int64(1)<<31)
}

// Intn returns a value in [0, n) drawn from the generator. n must be
// positive.
func (r *SeededRand) Intn(n int) int {
	return int(r.Next() * float64(n))
}
