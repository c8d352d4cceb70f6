package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// searchMarket pins search and recommendation results to one market so
// repeated queries stay comparable.
const searchMarket = "US"

// SearchArtistsByGenre searches for artists matching a genre filter,
// most relevant first.
func (c *Client) SearchArtistsByGenre(ctx context.Context, token, genre string, limit int) ([]Artist, error) {
	params := url.Values{
		"q":      {genreQuery(genre)},
		"type":   {"artist"},
		"limit":  {strconv.Itoa(limit)},
		"market": {searchMarket},
	}

	var resp searchResponse
	if err := c.get(ctx, token, "/search", params, &resp); err != nil {
		return nil, err
	}
	if resp.Artists == nil {
		return nil, nil
	}
	return resp.Artists.Items, nil
}

// SearchTracksByGenre searches for tracks matching a genre filter at the
// given page offset.
func (c *Client) SearchTracksByGenre(ctx context.Context, token, genre string, limit, offset int) ([]Track, error) {
	params := url.Values{
		"q":      {genreQuery(genre)},
		"type":   {"track"},
		"limit":  {strconv.Itoa(limit)},
		"market": {searchMarket},
		"offset": {strconv.Itoa(offset)},
	}

	var resp searchResponse
	if err := c.get(ctx, token, "/search", params, &resp); err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return nil, nil
	}
	return resp.Tracks.Items, nil
}

// genreQuery builds the quoted genre filter, e.g. `genre:"drum-and-bass"`.
func genreQuery(genre string) string {
	return fmt.Sprintf("genre:%q", genre)
}
