package spotify

import (
	"context"
	"net/url"
	"strings"
)

// GetAudioFeatures retrieves audio features for up to 100 tracks in one call.
// The result is positionally aligned with ids; tracks without features come
// back as nil entries.
func (c *Client) GetAudioFeatures(ctx context.Context, token string, ids []string) ([]*AudioFeatures, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{
		"ids": {strings.Join(ids, ",")},
	}

	var resp audioFeaturesResponse
	if err := c.get(ctx, token, "/audio-features", params, &resp); err != nil {
		return nil, err
	}
	return resp.AudioFeatures, nil
}
