package mood

import (
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// defaultVibeGroups is the number of k-means partitions used when grouping a
// result page.
const defaultVibeGroups = 3

// FeatureVector is one track's position in the tuned feature space.
type FeatureVector struct {
	TrackID      string
	Energy       float64
	Valence      float64
	Danceability float64
	Acousticness float64
}

// VibeGroup is a set of tracks from one result page that sit close together
// in feature space.
type VibeGroup struct {
	Name     string
	TrackIDs []string
	Centroid Profile
}

// trackObservation adapts a FeatureVector to the clusters.Observation
// interface.
type trackObservation struct {
	trackID string
	coords  clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// GroupByVibe partitions tracks into up to numGroups clusters by audio
// feature similarity and labels each cluster. Grouping is presentational:
// with too few tracks, or when partitioning fails, it returns nil and the
// caller renders the flat list instead.
func GroupByVibe(tracks []FeatureVector, numGroups int) []VibeGroup {
	if numGroups <= 0 {
		numGroups = defaultVibeGroups
	}
	if len(tracks) < numGroups {
		return nil
	}

	obs := make(clusters.Observations, 0, len(tracks))
	for _, t := range tracks {
		obs = append(obs, trackObservation{
			trackID: t.TrackID,
			coords:  clusters.Coordinates{t.Energy, t.Valence, t.Danceability, t.Acousticness},
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, numGroups)
	if err != nil {
		return nil
	}

	var groups []VibeGroup
	for _, cluster := range result {
		var ids []string
		for _, o := range cluster.Observations {
			if to, ok := o.(trackObservation); ok {
				ids = append(ids, to.trackID)
			}
		}
		if len(ids) == 0 {
			continue
		}

		centroid := Profile{
			Energy:       cluster.Center[0],
			Valence:      cluster.Center[1],
			Danceability: cluster.Center[2],
			Acousticness: cluster.Center[3],
		}
		groups = append(groups, VibeGroup{
			Name:     vibeName(centroid),
			TrackIDs: ids,
			Centroid: centroid,
		})
	}

	// Biggest group first so the page leads with the dominant vibe.
	slices.SortStableFunc(groups, func(a, b VibeGroup) int {
		return len(b.TrackIDs) - len(a.TrackIDs)
	})

	return groups
}

// vibeName labels a centroid using an energy/valence quadrant with an
// acousticness modifier.
func vibeName(c Profile) string {
	highEnergy := c.Energy > 0.6
	highValence := c.Valence > 0.5

	var base string
	switch {
	case highEnergy && highValence:
		base = "Upbeat Party"
	case highEnergy && !highValence:
		base = "Intense & Dark"
	case !highEnergy && highValence:
		base = "Chill & Happy"
	default:
		base = "Reflective & Melancholy"
	}

	if c.Acousticness > 0.6 {
		return base + " (Acoustic)"
	}
	return base
}
