package patentsearch

import (
	"context"
	"net/http"
	"net/url"
)

// Search runs a keyword, semantic or hybrid search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var out SearchResponse
	err := c.call(ctx, "search", http.MethodPost, "/api/v1/search/semantic", nil, req, &out)
	return out, err
}

// Quick runs a small default-configured hybrid search.
func (c *Client) Quick(ctx context.Context, query string) (SearchResponse, error) {
	var out SearchResponse
	err := c.call(ctx, "quick", http.MethodPost, "/api/v1/search/quick", nil,
		map[string]string{"query": query}, &out)
	return out, err
}

// Related returns the citing, cited and similar patents of one patent.
func (c *Client) Related(ctx context.Context, patentID string) (Related, error) {
	var out Related
	err := c.call(ctx, "related", http.MethodGet,
		"/api/v1/search/related/"+url.PathEscape(patentID), nil, nil, &out)
	return out, err
}

// Suggestions returns query completions for a prefix.
func (c *Client) Suggestions(ctx context.Context, prefix string) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	err := c.call(ctx, "suggestions", http.MethodGet, "/api/v1/search/suggestions",
		url.Values{"q": {prefix}}, nil, &out)
	return out.Suggestions, err
}

// Batch runs several hybrid searches. Results keep request order; a failed
// query carries its error instead of failing the whole call.
func (c *Client) Batch(ctx context.Context, queries []BatchQuery) ([]BatchResult, error) {
	var out struct {
		Results []batchItem `json:"results"`
	}
	err := c.call(ctx, "batch", http.MethodPost, "/api/v1/search/batch", nil,
		map[string][]BatchQuery{"queries": queries}, &out)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(out.Results))
	for i, item := range out.Results {
		results[i] = BatchResult{Query: item.Query, Response: item.Response}
		if item.Error != nil {
			results[i].Err = &APIError{Code: item.Error.Code, Message: item.Error.Message}
		}
	}
	return results, nil
}
