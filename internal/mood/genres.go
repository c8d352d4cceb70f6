package mood

import "slices"

// catalog lists the genres offered on the dashboard. Spotify accepts each
// entry as a seed genre.
var catalog = []string{
	"pop", "rock", "hip-hop", "edm", "r-n-b", "country", "latin", "indie", "jazz", "house",
	"dance", "electronic", "soul", "funk", "punk", "metal", "k-pop", "afrobeats", "reggae", "blues",
	"folk", "classical", "ambient", "techno", "trance", "dubstep", "drum-and-bass", "grunge", "emo",
}

// Genres returns the selectable genres sorted for display.
func Genres() []string {
	sorted := slices.Clone(catalog)
	slices.Sort(sorted)
	return sorted
}
