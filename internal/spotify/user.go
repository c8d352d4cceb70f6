package spotify

import "context"

// CurrentUser returns the profile of the token's user.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.get(ctx, token, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
