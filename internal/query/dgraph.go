package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// DgraphClient talks to a Dgraph alpha over HTTP. GraphQL queries go to
// /graphql and DQL queries to /query.
type DgraphClient struct {
	baseURL string
	http    *http.Client
}

// NewDgraphClient creates a client for the alpha at baseURL
// (e.g. "http://localhost:8080"). A nil httpClient uses http.DefaultClient.
func NewDgraphClient(baseURL string, httpClient *http.Client) *DgraphClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DgraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// GraphQL returns the structured-query capability.
func (c *DgraphClient) GraphQL() Capability {
	return Func(c.queryGraphQL)
}

// DQL returns the native-query-language capability.
func (c *DgraphClient) DQL() Capability {
	return Func(c.queryDQL)
}

func (c *DgraphClient) queryGraphQL(ctx context.Context, q string) (*Response, error) {
	if _, err := parser.ParseQuery(&ast.Source{Name: "graphql", Input: q}); err != nil {
		return nil, fmt.Errorf("dgraph graphql: invalid query: %w", err)
	}
	body, err := json.Marshal(map[string]string{"query": q})
	if err != nil {
		return nil, fmt.Errorf("dgraph graphql: encode request: %w", err)
	}
	return c.post(ctx, "/graphql", "application/json", body)
}

func (c *DgraphClient) queryDQL(ctx context.Context, q string) (*Response, error) {
	return c.post(ctx, "/query", "application/dql", []byte(q))
}

// dgraphResponse is the envelope shared by both Dgraph endpoints.
type dgraphResponse struct {
	Data   any           `json:"data"`
	Errors []dgraphError `json:"errors"`
}

type dgraphError struct {
	Message string `json:"message"`
}

func (c *DgraphClient) post(ctx context.Context, path, contentType string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dgraph %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dgraph %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dgraph %s: read response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("dgraph %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out dgraphResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("dgraph %s: decode response: %w", path, err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("dgraph %s: %s", path, strings.Join(msgs, "; "))
	}
	return &Response{Data: out.Data}, nil
}
