package mood

import (
	"math"
	"math/rand"
)

const (
	// jitterAmp bounds the uniform nudge applied to each center so repeated
	// requests with the same inputs land on slightly different tracks.
	jitterAmp = 0.08

	// rangeSpan is the half-width of the min/max window built around each
	// jittered center.
	rangeSpan = 0.20

	// The popularity window is not mood-dependent. It skips both obscure
	// and oversaturated tracks.
	minPopularity = 40
	maxPopularity = 95

	maxSeedGenres = 3
)

const (
	// DefaultLimit is the track count used when none was requested.
	DefaultLimit = 15

	// MaxLimit is the most tracks a single round will request.
	MaxLimit = 30

	minLimit = 1
)

// Range is an inclusive low/high pair for one feature dimension. It marshals
// as a two-element JSON array.
type Range [2]float64

// TargetRanges bounds every tuned dimension of a recommendation request.
type TargetRanges struct {
	Energy       Range  `json:"energy"`
	Valence      Range  `json:"valence"`
	Danceability Range  `json:"danceability"`
	Acousticness Range  `json:"acousticness"`
	Popularity   [2]int `json:"popularity"`
}

// Sliders carries the optional 0 to 10 fine-tune inputs. A nil field leaves
// the mood center for that dimension untouched.
type Sliders struct {
	Energy       *float64
	Positivity   *float64
	Danceability *float64
}

// BuildTargetRanges resolves the mood center, applies slider overrides,
// jitters each dimension and widens it into a min/max window. All feature
// bounds come out clamped to the 0 to 1 scale.
func BuildTargetRanges(label string, sliders Sliders, rng *rand.Rand) TargetRanges {
	center := ProfileFor(label)

	if sliders.Energy != nil {
		center.Energy = *sliders.Energy / 10
	}
	if sliders.Positivity != nil {
		center.Valence = *sliders.Positivity / 10
	}
	if sliders.Danceability != nil {
		center.Danceability = *sliders.Danceability / 10
	}

	return TargetRanges{
		Energy:       spanAround(jitter(center.Energy, rng)),
		Valence:      spanAround(jitter(center.Valence, rng)),
		Danceability: spanAround(jitter(center.Danceability, rng)),
		Acousticness: spanAround(jitter(center.Acousticness, rng)),
		Popularity:   [2]int{minPopularity, maxPopularity},
	}
}

func jitter(v float64, rng *rand.Rand) float64 {
	return clamp01(v + (rng.Float64()*2-1)*jitterAmp)
}

func spanAround(center float64) Range {
	return Range{clamp01(center - rangeSpan), clamp01(center + rangeSpan)}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ClampLimit bounds a requested track count to what the recommendations
// endpoint accepts.
func ClampLimit(limit int) int {
	if limit < minLimit {
		return minLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// SeedGenres returns up to three of the chosen genres for seeding, falling
// back to pop when none were chosen.
func SeedGenres(chosen []string) []string {
	if len(chosen) == 0 {
		return []string{"pop"}
	}
	if len(chosen) > maxSeedGenres {
		chosen = chosen[:maxSeedGenres]
	}
	return chosen
}
