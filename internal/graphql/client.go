package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/student-sync/internal/apperr"
	"github.com/DjordjeVuckovic/student-sync/pkg/pagination"
)

const defaultTimeout = 60 * time.Second

const queryTemplate = `query StudentExport($where: [_Where], $limit: Int, $offset: Int) {
  data(where: $where, limit: $limit, offset: $offset) {
    %s
  }
}`

// WhereCondition narrows the upstream query. The default selects
// active students only, matching the export this client replaces.
type WhereCondition struct {
	Field      string `json:"field"`
	Conditions string `json:"conditions"`
}

func DefaultWhere() []WhereCondition {
	return []WhereCondition{
		{Field: "nama_status_mahasiswa", Conditions: "Aktif"},
	}
}

type ClientOption func(client *Client)

// Client fetches successive pages of raw student records from the
// GraphQL endpoint. It holds no pagination state; every Fetch is one
// POST for exactly the requested range.
type Client struct {
	base  url.URL
	token string
	query string
	where []WhereCondition
	http  *http.Client
}

func NewClient(endpoint, token string, fields []string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, apperr.NewValidationWrap("invalid endpoint url", err)
	}
	if len(fields) == 0 {
		return nil, apperr.NewValidation("at least one field to select is required")
	}

	client := &Client{
		base:  *base,
		token: token,
		query: fmt.Sprintf(queryTemplate, strings.Join(fields, "\n    ")),
		where: DefaultWhere(),
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) {
		client.http = httpClient
	}
}

func WithWhere(where []WhereCondition) ClientOption {
	return func(client *Client) {
		client.where = where
	}
}

type request struct {
	Query     string    `json:"query"`
	Variables variables `json:"variables"`
}

type variables struct {
	Where  []WhereCondition `json:"where"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type response struct {
	Data struct {
		Data []map[string]any `json:"data"`
	} `json:"data"`
}

// Fetch issues one query for the requested range and returns the
// records verbatim. A non-200 response or an undecodable body is an
// UpstreamError; no retry happens here.
func (c *Client) Fetch(ctx context.Context, req pagination.OffsetRequest) (*pagination.Page[map[string]any], error) {
	payload := request{
		Query: c.query,
		Variables: variables{
			Where:  c.where,
			Limit:  req.Limit,
			Offset: req.Offset,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.NewUpstreamWrap("marshal query payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String(), bytes.NewReader(body))
	if err != nil {
		return nil, apperr.NewUpstreamWrap("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.NewUpstreamWrap("query upstream", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewUpstreamWrap("read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.NewUpstream("unexpected status from upstream", resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperr.NewUpstreamWrap("unmarshal response", err)
	}

	return pagination.NewPage(parsed.Data.Data, req), nil
}
