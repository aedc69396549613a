package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jasperwreed/pixel-chat/internal/models"
)

// SearchText finds images matching a text query.
func (c *Client) SearchText(ctx context.Context, query string, opts TextSearchOptions) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("top_k", strconv.Itoa(topKOrDefault(opts.TopK)))
	if opts.ScoreThreshold != nil {
		params.Set("score_threshold", strconv.FormatFloat(*opts.ScoreThreshold, 'f', -1, 64))
	}
	for _, tag := range opts.Tags {
		params.Add("tags", tag)
	}

	var resp SearchResponse
	if err := c.getJSON(ctx, "/search/text", params, &resp); err != nil {
		return nil, err
	}
	c.linkImages(resp.Data)
	return &resp, nil
}

// SearchByImage finds images similar to a stored image.
func (c *Client) SearchByImage(ctx context.Context, imageID string, topK int, scoreThreshold *float64) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("top_k", strconv.Itoa(topKOrDefault(topK)))
	if scoreThreshold != nil {
		params.Set("score_threshold", strconv.FormatFloat(*scoreThreshold, 'f', -1, 64))
	}

	var resp SearchResponse
	if err := c.getJSON(ctx, "/search/image/"+url.PathEscape(imageID), params, &resp); err != nil {
		return nil, err
	}
	c.linkImages(resp.Data)
	return &resp, nil
}

// Search runs the combined text/image search.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.postJSON(ctx, "/search/", params, &resp); err != nil {
		return nil, err
	}
	c.linkImages(resp.Data)
	return &resp, nil
}

func (c *Client) linkImages(images []models.ImageResult) {
	for i := range images {
		if images[i].PreviewURL == "" {
			images[i].PreviewURL = c.ImageURL(images[i].ID)
		}
	}
}

func topKOrDefault(topK int) int {
	if topK <= 0 {
		return 10
	}
	return topK
}
