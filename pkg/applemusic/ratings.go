// Rating passthrough for the signed-in user's library. Ratings on the
// platform are a like/dislike pair encoded as +1/-1; anything else is
// rejected before a request is built. All three endpoints require a music
// user token.
package applemusic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/zchwyng/musadora/pkg/catalog"
)

const (
	RatingLike    = 1
	RatingDislike = -1
)

func (c *Client) ratingPath(op string, kind catalog.ItemKind, id string) (string, error) {
	if c.UserToken == "" {
		return "", &catalog.ConfigError{Op: op, Detail: "music user token required"}
	}
	if !kind.Valid() {
		return "", &catalog.ConfigError{Op: op, Detail: "unknown item kind " + string(kind)}
	}
	if id == "" {
		return "", &catalog.ConfigError{Op: op, Detail: "empty resource id"}
	}
	return "/v1/me/ratings/" + string(kind) + "/" + id, nil
}

// Rating returns the user's rating for the given resource. A missing rating
// surfaces as a TransportError with status 404, matching the API.
func (c *Client) Rating(ctx context.Context, kind catalog.ItemKind, id string) (int, error) {
	path, err := c.ratingPath("rating", kind, id)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var body struct {
		Data []struct {
			Attributes struct {
				Value int `json:"value"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, &catalog.DecodeError{Err: err}
	}
	if len(body.Data) == 0 {
		return 0, &catalog.DecodeError{Err: errEmptyData}
	}
	return body.Data[0].Attributes.Value, nil
}

// AddRating sets the user's rating for the given resource, replacing any
// existing value.
func (c *Client) AddRating(ctx context.Context, kind catalog.ItemKind, id string, value int) error {
	if value != RatingLike && value != RatingDislike {
		return &catalog.ConfigError{Op: "addRating", Detail: "rating value must be 1 or -1"}
	}
	path, err := c.ratingPath("addRating", kind, id)
	if err != nil {
		return err
	}
	payload := struct {
		Type       string `json:"type"`
		Attributes struct {
			Value int `json:"value"`
		} `json:"attributes"`
	}{Type: "rating"}
	payload.Attributes.Value = value
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPut, path, nil, bytes.NewReader(b))
	if err != nil {
		return err
	}
	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// DeleteRating removes the user's rating for the given resource.
func (c *Client) DeleteRating(ctx context.Context, kind catalog.ItemKind, id string) error {
	path, err := c.ratingPath("deleteRating", kind, id)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
