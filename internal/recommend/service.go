// Package recommend orchestrates one recommendation round: pick seeds, tune
// the query for the requested mood, call the recommendations endpoint and
// fall back to a plain genre search when it cannot serve.
package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-mood-mixer/internal/mood"
	"github.com/justestif/go-spotify-mood-mixer/internal/spotify"
)

const (
	market         = "US"
	maxArtistSeeds = 2
)

// fallbackOffsets are the page starts the fallback search picks from, so a
// failing recommendations endpoint still yields some variety.
var fallbackOffsets = []int{0, 20, 40, 60}

// Request carries the dashboard form inputs for one round. Limit is clamped
// to the accepted window; callers substitute mood.DefaultLimit before the
// call when the form omits it.
type Request struct {
	Mood    string
	Genres  []string
	Limit   int
	Sliders mood.Sliders
}

// TrackSummary is the flattened view of a track that the results page and
// the playlist form work with.
type TrackSummary struct {
	ID          string
	URI         string
	Name        string
	Artists     string
	AlbumImage  string
	PreviewURL  *string
	ExternalURL string
}

// Seeds records the genre and artist seeds a query actually used.
type Seeds struct {
	Genres  []string `json:"genres"`
	Artists []string `json:"artists"`
}

// SeedParams is the stored recipe of one round: what was asked for and how
// the query was built. It is kept in the session and attached to any
// playlist created from the round.
type SeedParams struct {
	Mood   string            `json:"mood"`
	Genres []string          `json:"genres"`
	Limit  int               `json:"limit"`
	Ranges mood.TargetRanges `json:"ranges"`
	Seeds  Seeds             `json:"seeds"`
}

// Result is one finished round.
type Result struct {
	Tracks     []TrackSummary
	SeedParams SeedParams
	Fallback   bool
}

// Service runs recommendation rounds against the Spotify API.
type Service struct {
	client *spotify.Client
	seeds  *seedCache

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source. Tests use it for determinism.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

// WithSeedCacheTTL overrides how long resolved seed artists are reused.
func WithSeedCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.seeds = newSeedCache(ttl)
	}
}

// NewService creates a Service on top of the given API client.
func NewService(client *spotify.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		seeds:  newSeedCache(seedCacheTTL),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs one round. The recommendations endpoint gets a single try;
// any error or an empty result switches to the genre search fallback, whose
// own failure propagates.
func (s *Service) Recommend(ctx context.Context, token string, req Request) (*Result, error) {
	limit := mood.ClampLimit(req.Limit)
	ranges := s.targetRanges(req)
	seedGenres := mood.SeedGenres(req.Genres)
	seedArtists := s.artistSeeds(ctx, token, seedGenres)

	query := spotify.RecommendationQuery{
		Limit:           limit,
		Market:          market,
		MinEnergy:       ranges.Energy[0],
		MaxEnergy:       ranges.Energy[1],
		MinValence:      ranges.Valence[0],
		MaxValence:      ranges.Valence[1],
		MinDanceability: ranges.Danceability[0],
		MaxDanceability: ranges.Danceability[1],
		MinAcousticness: ranges.Acousticness[0],
		MaxAcousticness: ranges.Acousticness[1],
		MinPopularity:   ranges.Popularity[0],
		MaxPopularity:   ranges.Popularity[1],
		SeedGenres:      seedGenres,
		SeedArtists:     seedArtists,
	}

	fallback := false
	tracks, err := s.client.Recommendations(ctx, token, query)
	if err != nil || len(tracks) == 0 {
		if err != nil {
			log.WithError(err).Warn("recommendations failed, trying genre search")
		} else {
			log.Warn("recommendations came back empty, trying genre search")
		}

		tracks, err = s.searchFallback(ctx, token, seedGenres[0], limit)
		if err != nil {
			return nil, err
		}
		fallback = true
	}

	genres := req.Genres
	if len(genres) == 0 {
		genres = []string{"pop"}
	}

	return &Result{
		Tracks: summarize(tracks),
		SeedParams: SeedParams{
			Mood:   req.Mood,
			Genres: genres,
			Limit:  limit,
			Ranges: ranges,
			Seeds:  Seeds{Genres: seedGenres, Artists: seedArtists},
		},
		Fallback: fallback,
	}, nil
}

// VibeGroups clusters a result page by audio feature similarity for display.
// Grouping is best effort: any failure degrades to no groups.
func (s *Service) VibeGroups(ctx context.Context, token string, tracks []TrackSummary) []mood.VibeGroup {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	features, err := s.client.GetAudioFeatures(ctx, token, ids)
	if err != nil {
		log.WithError(err).Debug("audio features unavailable, skipping vibe groups")
		return nil
	}

	vectors := make([]mood.FeatureVector, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		vectors = append(vectors, mood.FeatureVector{
			TrackID:      f.ID,
			Energy:       f.Energy,
			Valence:      f.Valence,
			Danceability: f.Danceability,
			Acousticness: f.Acousticness,
		})
	}

	return mood.GroupByVibe(vectors, 0)
}

func (s *Service) targetRanges(req Request) mood.TargetRanges {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mood.BuildTargetRanges(req.Mood, req.Sliders, s.rng)
}

func (s *Service) fallbackOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fallbackOffsets[s.rng.Intn(len(fallbackOffsets))]
}

// artistSeeds finds up to two artist IDs by searching one popular artist per
// seed genre. Resolved genres are cached; lookups are best effort and a
// failed genre is skipped.
func (s *Service) artistSeeds(ctx context.Context, token string, genres []string) []string {
	var artists []string
	for _, genre := range genres {
		id, ok := s.seeds.get(genre)
		if !ok {
			found, err := s.client.SearchArtistsByGenre(ctx, token, genre, 1)
			if err != nil {
				log.WithError(err).WithField("genre", genre).Debug("artist seed lookup failed")
				continue
			}
			if len(found) == 0 {
				continue
			}
			id = found[0].ID
			s.seeds.put(genre, id)
		}
		artists = append(artists, id)
		if len(artists) >= maxArtistSeeds {
			break
		}
	}
	return dedupe(artists)
}

func (s *Service) searchFallback(ctx context.Context, token, genre string, limit int) ([]spotify.Track, error) {
	tracks, err := s.client.SearchTracksByGenre(ctx, token, genre, limit, s.fallbackOffset())
	if err != nil {
		return nil, fmt.Errorf("genre search fallback: %w", err)
	}
	return tracks, nil
}

// dedupe drops repeated IDs while preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// summarize flattens API tracks into the view the templates render.
func summarize(tracks []spotify.Track) []TrackSummary {
	summaries := make([]TrackSummary, 0, len(tracks))
	for _, t := range tracks {
		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			names = append(names, a.Name)
		}
		summaries = append(summaries, TrackSummary{
			ID:          t.ID,
			URI:         t.URI,
			Name:        t.Name,
			Artists:     strings.Join(names, ", "),
			AlbumImage:  albumImageURL(t.Album.Images),
			PreviewURL:  t.PreviewURL,
			ExternalURL: t.ExternalURLs.Spotify,
		})
	}
	return summaries
}

// albumImageURL prefers the mid-size album image and tolerates albums with
// one or zero images.
func albumImageURL(images []spotify.Image) string {
	switch {
	case len(images) >= 2:
		return images[1].URL
	case len(images) == 1:
		return images[0].URL
	default:
		return ""
	}
}
