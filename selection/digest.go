package selection

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
)

// actionableBonus nudges frameworks and principles above quotes and
// stories at equal topic affinity.
const actionableBonus = 0.5

// PickDigestNuggets scores the pool against the user's topic affinity
// and returns up to n nuggets, at most one per leader, with advisory
// type diversity among the first three picks.
//
// affinity maps topic tag to weight, in practice the frequency count
// of the tag across the user's favorites. An empty affinity map is the
// cold-start case: every nugget gets a uniform score drawn from the
// seed so new users still get variety, and repeated calls with the
// same inputs stay reproducible.
//
// exclude holds nugget ids surfaced within the history window; they
// never appear in the result. If fewer than n nuggets remain eligible
// the result is simply shorter, never an error.
func PickDigestNuggets(pool []*model.Nugget, affinity map[string]float64, exclude map[string]bool, n int, seed int64) []*model.Nugget {
	if n <= 0 {
		return nil
	}

	rng := NewSeededRand(seed)

	type scored struct {
		nugget *model.Nugget
		score  float64
	}
	var candidates []scored
	for _, nugget := range pool {
		if exclude[nugget.Id] {
			continue
		}

		var score float64
		if len(affinity) > 0 {
			weights := make([]float64, 0, len(nugget.TopicTags))
			for _, tag := range nugget.TopicTags {
				weights = append(weights, affinity[tag])
			}
			score = floats.Sum(weights)
		} else {
			score = rng.Next()
		}
		if nugget.IsActionable() {
			score += actionableBonus
		}
		candidates = append(candidates, scored{nugget, score})
	}

	// Stable keeps the original pool order as the tie-break, so the
	// whole selection is a pure function of its inputs.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	selected := make([]*model.Nugget, 0, n)
	usedLeaders := make(map[string]bool)
	typeCounts := make(map[model.NuggetType]int)
	for _, c := range candidates {
		if len(selected) >= n {
			break
		}
		if usedLeaders[c.nugget.LeaderID] {
			continue
		}
		// Advisory type diversity: while fewer than 3 distinct types
		// are represented, don't let any single type take a third slot.
		if typeCounts[c.nugget.Type] >= 2 && len(typeCounts) < 3 {
			continue
		}
		selected = append(selected, c.nugget)
		usedLeaders[c.nugget.LeaderID] = true
		typeCounts[c.nugget.Type]++
	}

	// Backfill in score order ignoring the soft constraints when they
	// left us short.
	if len(selected) < n {
		picked := make(map[string]bool, len(selected))
		for _, s := range selected {
			picked[s.Id] = true
		}
		for _, c := range candidates {
			if len(selected) >= n {
				break
			}
			if picked[c.nugget.Id] {
				continue
			}
			selected = append(selected, c.nugget)
			picked[c.nugget.Id] = true
		}
	}

	return selected
}

// TopicAffinity builds the affinity map from the topic tags of a
// user's favorited nuggets. Weight is the raw frequency count.
func TopicAffinity(favorites []*model.Nugget) map[string]float64 {
	affinity := make(map[string]float64)
	for _, nugget := range favorites {
		for _, tag := range nugget.TopicTags {
			affinity[tag]++
		}
	}
	return affinity
}
