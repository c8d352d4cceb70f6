package spotify

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// RecommendationQuery carries the synthesized parameters for one
// recommendation call. All float bounds are expected pre-clamped to [0,1].
type RecommendationQuery struct {
	Limit  int
	Market string

	MinEnergy, MaxEnergy             float64
	MinValence, MaxValence           float64
	MinDanceability, MaxDanceability float64
	MinAcousticness, MaxAcousticness float64
	MinPopularity, MaxPopularity     int

	SeedGenres  []string
	SeedArtists []string
}

// values encodes the query for the wire. seed_artists is omitted entirely
// when no artist seeds were resolved.
func (q RecommendationQuery) values() url.Values {
	params := url.Values{
		"limit":            {strconv.Itoa(q.Limit)},
		"market":           {q.Market},
		"min_energy":       {formatFeature(q.MinEnergy)},
		"max_energy":       {formatFeature(q.MaxEnergy)},
		"min_valence":      {formatFeature(q.MinValence)},
		"max_valence":      {formatFeature(q.MaxValence)},
		"min_danceability": {formatFeature(q.MinDanceability)},
		"max_danceability": {formatFeature(q.MaxDanceability)},
		"min_acousticness": {formatFeature(q.MinAcousticness)},
		"max_acousticness": {formatFeature(q.MaxAcousticness)},
		"min_popularity":   {strconv.Itoa(q.MinPopularity)},
		"max_popularity":   {strconv.Itoa(q.MaxPopularity)},
		"seed_genres":      {strings.Join(q.SeedGenres, ",")},
	}
	if len(q.SeedArtists) > 0 {
		params.Set("seed_artists", strings.Join(q.SeedArtists, ","))
	}
	return params
}

func formatFeature(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Recommendations fetches recommended tracks for the synthesized query.
func (c *Client) Recommendations(ctx context.Context, token string, query RecommendationQuery) ([]Track, error) {
	var resp recommendationsResponse
	if err := c.get(ctx, token, "/recommendations", query.values(), &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}
