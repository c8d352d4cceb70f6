// Package mood turns a mood label and optional slider tweaks into bounded
// audio feature targets for recommendation queries.
package mood

// Profile is the center of a mood in audio feature space. Every dimension is
// on Spotify's 0 to 1 scale.
type Profile struct {
	Energy       float64
	Valence      float64
	Danceability float64
	Acousticness float64
}

// profiles maps each selectable mood label to its center point.
var profiles = map[string]Profile{
	"happy": {Energy: 0.78, Valence: 0.85, Danceability: 0.72, Acousticness: 0.25},
	"chill": {Energy: 0.35, Valence: 0.55, Danceability: 0.45, Acousticness: 0.55},
	"focus": {Energy: 0.30, Valence: 0.40, Danceability: 0.35, Acousticness: 0.70},
	"party": {Energy: 0.88, Valence: 0.75, Danceability: 0.88, Acousticness: 0.10},
}

// defaultProfile is the balanced center used when no mood was picked or the
// label is unknown.
var defaultProfile = Profile{Energy: 0.55, Valence: 0.55, Danceability: 0.55, Acousticness: 0.35}

// ProfileFor returns the center for a mood label. Unknown labels and the
// empty string fall back to the balanced default.
func ProfileFor(label string) Profile {
	if p, ok := profiles[label]; ok {
		return p
	}
	return defaultProfile
}

// Labels lists the selectable mood labels in display order.
func Labels() []string {
	return []string{"happy", "chill", "focus", "party"}
}
