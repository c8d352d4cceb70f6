package spotify

// User is the profile of the authenticated Spotify user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Image is one size of album or profile art. Spotify orders images
// largest-first.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is a Spotify artist reference.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is a Spotify album reference with its art.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// ExternalURLs carries the public link for a Spotify resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Track is a Spotify track as returned by the search and recommendation
// endpoints.
type Track struct {
	ID           string       `json:"id"`
	URI          string       `json:"uri"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	Popularity   int          `json:"popularity"`
	PreviewURL   *string      `json:"preview_url"` // nullable
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Playlist is the response from playlist creation.
type Playlist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// AudioFeatures holds the per-track features used for vibe grouping.
type AudioFeatures struct {
	ID           string  `json:"id"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
}

// Response envelopes.

type searchResponse struct {
	Artists *artistPage `json:"artists"`
	Tracks  *trackPage  `json:"tracks"`
}

type artistPage struct {
	Items []Artist `json:"items"`
}

type trackPage struct {
	Items []Track `json:"items"`
}

type recommendationsResponse struct {
	Tracks []Track `json:"tracks"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}
