// Package countback implements the countback tiebreak comparison used when
// two competitors finish on equal total points: the competitor whose best
// individual results are strongest wins, with how often a score value was
// achieved as a secondary signal at each score level.
package countback

import (
	"sort"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
)

// Profile returns a competitor's performance profile: the non-zero scores,
// rounded to comparison precision and sorted best-first. A zero score means
// "did not score" and never participates in countback.
func Profile(scores []float64) []float64 {
	profile := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s != 0 {
			profile = append(profile, model.Round2(s))
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(profile)))
	return profile
}

// Compare decides which of two score sequences is lexicographically stronger
// under best-scores-first order. It returns -1 if a wins, +1 if b wins, and
// 0 when the two are indistinguishable. A shorter profile supplies implicit
// zeros beyond its length, so trailing zero entries never affect the result.
func Compare(a, b []float64) int {
	pa := Profile(a)
	pb := Profile(b)

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	for i := 0; i < n; i++ {
		va := at(pa, i)
		vb := at(pb, i)

		switch {
		case va > vb:
			return -1
		case vb > va:
			return 1
		case va == 0:
			// Both profiles exhausted at this position.
			continue
		}

		// Equal nonzero scores: the competitor who achieved this value more
		// often wins the position outright.
		ca := occurrences(pa, va)
		cb := occurrences(pb, va)
		switch {
		case ca > cb:
			return -1
		case cb > ca:
			return 1
		}
	}
	return 0
}

func at(profile []float64, i int) float64 {
	if i < len(profile) {
		return profile[i]
	}
	return 0
}

func occurrences(profile []float64, v float64) int {
	count := 0
	for _, s := range profile {
		if s == v {
			count++
		}
	}
	return count
}
