package patentsearch

import (
	"context"
	"net/http"
	"net/url"
)

// Landscape builds the statistics, clusters and citation network for a query.
func (c *Client) Landscape(ctx context.Context, query string, f Filters) (Landscape, error) {
	var out Landscape
	body := struct {
		Query   string  `json:"query"`
		Filters Filters `json:"filters"`
	}{query, f}
	err := c.call(ctx, "landscape", http.MethodPost, "/api/v1/analytics/landscape", nil, body, &out)
	return out, err
}

// Statistics returns corpus aggregates under the filters.
func (c *Client) Statistics(ctx context.Context, f Filters) (Statistics, error) {
	var out Statistics
	err := c.call(ctx, "statistics", http.MethodGet, "/api/v1/analytics/statistics",
		filterQuery(f), nil, &out)
	return out, err
}

// Patent fetches one patent by publication number.
func (c *Client) Patent(ctx context.Context, id string) (Patent, error) {
	var out Patent
	err := c.call(ctx, "patent", http.MethodGet, "/api/v1/patents/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// filterQuery encodes filters the way the statistics endpoint reads them.
func filterQuery(f Filters) url.Values {
	q := url.Values{}
	if f.DateRange != nil {
		if f.DateRange.Start != "" {
			q.Set("dateFrom", f.DateRange.Start)
		}
		if f.DateRange.End != "" {
			q.Set("dateTo", f.DateRange.End)
		}
	}
	for _, v := range f.CountryCodes {
		q.Add("countries", v)
	}
	for _, v := range f.Classifications {
		q.Add("classifications", v)
	}
	for _, v := range f.Assignees {
		q.Add("assignee", v)
	}
	return q
}
