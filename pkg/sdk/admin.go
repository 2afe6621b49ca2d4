package patentsearch

import (
	"context"
	"net/http"
	"net/url"
)

// Admin operations require an API key with the admin role.

// StartIndexJob starts a background bulk indexing job and returns its id.
func (c *Client) StartIndexJob(ctx context.Context, job IndexJob) (string, error) {
	var out struct {
		JobID string `json:"jobId"`
	}
	err := c.call(ctx, "start_index_job", http.MethodPost, "/api/v1/admin/index/jobs", nil, job, &out)
	return out.JobID, err
}

// IndexJob returns a snapshot of a bulk indexing job.
func (c *Client) IndexJob(ctx context.Context, id string) (IndexJobStatus, error) {
	var out IndexJobStatus
	err := c.call(ctx, "index_job", http.MethodGet, "/api/v1/admin/index/jobs/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// CancelIndexJob stops a running job.
func (c *Client) CancelIndexJob(ctx context.Context, id string) error {
	return c.call(ctx, "cancel_index_job", http.MethodDelete, "/api/v1/admin/index/jobs/"+url.PathEscape(id), nil, nil, nil)
}

// IndexStatus reports whether the vector index exists and how many vectors it holds.
func (c *Client) IndexStatus(ctx context.Context) (IndexStatus, error) {
	var out IndexStatus
	err := c.call(ctx, "index_status", http.MethodGet, "/api/v1/admin/index/status", nil, nil, &out)
	return out, err
}

// CreateIndex creates the vector index if it does not exist.
func (c *Client) CreateIndex(ctx context.Context) (IndexStatus, error) {
	var out IndexStatus
	err := c.call(ctx, "create_index", http.MethodPost, "/api/v1/admin/index", nil, nil, &out)
	return out, err
}

// DeleteIndex drops the vector index.
func (c *Client) DeleteIndex(ctx context.Context) error {
	return c.call(ctx, "delete_index", http.MethodDelete, "/api/v1/admin/index", nil, nil, nil)
}
