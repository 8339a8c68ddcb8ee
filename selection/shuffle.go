package selection

import "github.com/fillip-70-jackdaw/business-wisdom/model"

// feedPrefixWindow is the stretch of the feed users actually see first
// in the swipeable UI; the post-pass biases decluttering toward it.
const feedPrefixWindow = 10

// AntiClusterShuffle returns a permutation of nuggets in which no
// leader appears three times in a row whenever no leader holds more
// than half the pool. The same (nuggets, seed) pair always produces
// the same order.
//
// The permutation is built in three steps: a seeded Fisher-Yates base
// shuffle, a greedy pass that prefers a candidate whose leader differs
// from the last two emitted (relaxing to the last one, then to any),
// and a window correction that swaps leader over-representation out of
// the first feedPrefixWindow positions.
//
// The greedy pass force-picks a leader whose remaining count exceeds
// half the remaining slots; leaving such a leader unconsumed is what
// would pile its nuggets into a run at the tail. At most one leader
// can exceed the threshold, so the forced pick is deterministic.
//
// Degenerate inputs pass through: 0 or 1 nuggets are returned as-is,
// and a pool where one leader holds more than half degrades to runs of
// that leader rather than looping.
func AntiClusterShuffle(nuggets []*model.Nugget, seed int64) []*model.Nugget {
	if len(nuggets) <= 1 {
		return nuggets
	}

	rng := NewSeededRand(seed)

	pool := make([]*model.Nugget, len(nuggets))
	copy(pool, nuggets)
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	counts := make(map[string]int)
	for _, n := range pool {
		counts[n.LeaderID]++
	}

	result := make([]*model.Nugget, 0, len(pool))
	for len(pool) > 0 {
		var last1, last2 string
		if len(result) > 0 {
			last1 = result[len(result)-1].LeaderID
		}
		if len(result) > 1 {
			last2 = result[len(result)-2].LeaderID
		}

		candidates := forcedCandidates(pool, counts)
		if len(candidates) == 0 {
			candidates = filterByLeader(pool, last1, last2)
		}
		if len(candidates) == 0 {
			candidates = filterByLeader(pool, last1, "")
		}
		if len(candidates) == 0 {
			candidates = pool
		}

		picked := candidates[rng.Intn(len(candidates))]
		result = append(result, picked)
		pool = removeNugget(pool, picked)
		counts[picked.LeaderID]--
	}

	return declusterPrefix(result)
}

// forcedCandidates returns the nuggets of the one leader whose
// remaining count exceeds half the remaining slots, or nil when no
// leader does. Two leaders both over half would sum past the total,
// so the answer is unique regardless of map iteration order.
func forcedCandidates(pool []*model.Nugget, counts map[string]int) []*model.Nugget {
	for leader, count := range counts {
		if count*2 > len(pool) {
			var out []*model.Nugget
			for _, n := range pool {
				if n.LeaderID == leader {
					out = append(out, n)
				}
			}
			return out
		}
	}
	return nil
}

// filterByLeader returns pool entries whose leader differs from both
// exclusions. Empty strings match nothing and so exclude nothing.
func filterByLeader(pool []*model.Nugget, exclude1, exclude2 string) []*model.Nugget {
	var out []*model.Nugget
	for _, n := range pool {
		if (exclude1 == "" || n.LeaderID != exclude1) &&
			(exclude2 == "" || n.LeaderID != exclude2) {
			out = append(out, n)
		}
	}
	return out
}

func removeNugget(pool []*model.Nugget, target *model.Nugget) []*model.Nugget {
	for i, n := range pool {
		if n == target {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}

// declusterPrefix swaps any third-or-later occurrence of a leader
// within the prefix window for a later nugget whose leader is still
// under-represented there. A swap that would put three same-leader
// nuggets next to each other around either position is skipped.
func declusterPrefix(result []*model.Nugget) []*model.Nugget {
	window := feedPrefixWindow
	if window > len(result) {
		window = len(result)
	}

	counts := make(map[string]int)
	for _, n := range result[:window] {
		counts[n.LeaderID]++
	}

	for i := 0; i < window; i++ {
		n := result[i]
		if counts[n.LeaderID] <= 2 {
			continue
		}
		for j := feedPrefixWindow; j < len(result); j++ {
			swap := result[j]
			if counts[swap.LeaderID] >= 2 {
				continue
			}
			result[i], result[j] = result[j], result[i]
			if hasRunAround(result, i) || hasRunAround(result, j) {
				result[i], result[j] = result[j], result[i]
				continue
			}
			counts[n.LeaderID]--
			counts[swap.LeaderID]++
			break
		}
	}
	return result
}

// hasRunAround reports whether any three consecutive positions
// touching index k share a leader.
func hasRunAround(result []*model.Nugget, k int) bool {
	for start := k - 2; start <= k; start++ {
		if start < 0 || start+2 >= len(result) {
			continue
		}
		if result[start].LeaderID == result[start+1].LeaderID &&
			result[start].LeaderID == result[start+2].LeaderID {
			return true
		}
	}
	return false
}
