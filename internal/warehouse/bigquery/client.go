// Package bigquery is the production warehouse backend over the BigQuery
// REST API (jobs.query + jobs.getQueryResults).
package bigquery

import (
	"context"
	"fmt"
	"time"

	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/warehouse"
)

const defaultTimeout = 30 * time.Second

var _ warehouse.Querier = (*Client)(nil)

// Config holds BigQuery connection parameters.
type Config struct {
	Project         string
	Dataset         string
	Table           string
	Location        string
	CredentialsFile string
	// Endpoint overrides the API base URL (emulators, tests).
	Endpoint string
	Timeout  time.Duration
}

// Client runs parameterized queries against one patents table.
type Client struct {
	svc     *bq.Service
	cfg     Config
	dialect dialect
}

// New creates a BigQuery client. Extra options are appended after the
// ones derived from cfg.
func New(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Client, error) {
	if cfg.Project == "" || cfg.Dataset == "" || cfg.Table == "" {
		return nil, fmt.Errorf("project, dataset and table are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := []option.ClientOption{option.WithScopes(bq.BigqueryScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	svc, err := bq.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery service: %w", err)
	}

	return &Client{
		svc:     svc,
		cfg:     cfg,
		dialect: dialect{table: fmt.Sprintf("`%s.%s.%s`", cfg.Project, cfg.Dataset, cfg.Table)},
	}, nil
}

// Dialect returns the GoogleSQL dialect bound to the configured table.
func (c *Client) Dialect() warehouse.Dialect { return c.dialect }

// Close is a no-op; the REST service holds no connections of its own.
func (c *Client) Close() error { return nil }

// Ping checks that the dataset is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.svc.Datasets.Get(c.cfg.Project, c.cfg.Dataset).Context(ctx).Do(); err != nil {
		return fmt.Errorf("get dataset: %w", err)
	}
	return nil
}

// Query runs a standard-SQL query with named parameters, waits for the job,
// and follows result pages. Cells are returned unmodified; REPEATED columns
// arrive as lists of {"v": ...} cells.
func (c *Client) Query(ctx context.Context, sql string, params []warehouse.Param) ([]patent.Row, error) {
	qp, err := queryParameters(params)
	if err != nil {
		return nil, err
	}

	req := &bq.QueryRequest{
		Query:           sql,
		UseLegacySql:    googleapi.Bool(false),
		ParameterMode:   "NAMED",
		QueryParameters: qp,
		TimeoutMs:       c.cfg.Timeout.Milliseconds(),
		Location:        c.cfg.Location,
	}
	resp, err := c.svc.Jobs.Query(c.cfg.Project, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("jobs.query: %w", err)
	}

	schema, rows, pageToken := resp.Schema, resp.Rows, resp.PageToken
	if resp.JobComplete && pageToken == "" {
		return convertRows(schema, rows), nil
	}
	if resp.JobReference == nil {
		return nil, fmt.Errorf("jobs.query: incomplete job without reference")
	}

	var out []patent.Row
	if resp.JobComplete {
		out = append(out, convertRows(schema, rows)...)
	}
	jobID := resp.JobReference.JobId
	location := resp.JobReference.Location
	for {
		call := c.svc.Jobs.GetQueryResults(c.cfg.Project, jobID).
			TimeoutMs(c.cfg.Timeout.Milliseconds()).
			Context(ctx)
		if location != "" {
			call = call.Location(location)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("jobs.getQueryResults: %w", err)
		}
		if !page.JobComplete {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, convertRows(page.Schema, page.Rows)...)
		if page.PageToken == "" {
			return out, nil
		}
		pageToken = page.PageToken
	}
}

func queryParameters(params []warehouse.Param) ([]*bq.QueryParameter, error) {
	out := make([]*bq.QueryParameter, 0, len(params))
	for _, p := range params {
		typ, val, err := encodeValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out = append(out, &bq.QueryParameter{
			Name:           p.Name,
			ParameterType:  &bq.QueryParameterType{Type: typ},
			ParameterValue: &bq.QueryParameterValue{Value: val},
		})
	}
	return out, nil
}

func encodeValue(v any) (typ, val string, err error) {
	switch t := v.(type) {
	case string:
		return "STRING", t, nil
	case int:
		return "INT64", fmt.Sprint(t), nil
	case int64:
		return "INT64", fmt.Sprint(t), nil
	case float64:
		return "FLOAT64", fmt.Sprint(t), nil
	case bool:
		return "BOOL", fmt.Sprint(t), nil
	default:
		return "", "", fmt.Errorf("unsupported parameter type %T", v)
	}
}

func convertRows(schema *bq.TableSchema, rows []*bq.TableRow) []patent.Row {
	if schema == nil {
		return nil
	}
	out := make([]patent.Row, 0, len(rows))
	for _, r := range rows {
		row := make(patent.Row, len(schema.Fields))
		for i, f := range schema.Fields {
			if i < len(r.F) && r.F[i] != nil {
				row[f.Name] = r.F[i].V
			}
		}
		out = append(out, row)
	}
	return out
}

type dialect struct {
	table string
}

func (d dialect) Table() string { return d.table }

func (dialect) Like(expr, param string) string {
	return fmt.Sprintf("%s LIKE %s", expr, param)
}

func (dialect) ArrayAnyLike(col, param string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM UNNEST(%s) AS e WHERE e LIKE %s)", col, param)
}

func (dialect) ArrayContains(col, param string) string {
	return fmt.Sprintf("%s IN UNNEST(%s)", param, col)
}

func (dialect) Unnest(col, alias string) (from, elem string) {
	return fmt.Sprintf("UNNEST(%s) AS %s", col, alias), alias
}
