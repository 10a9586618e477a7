// Package ragfleet is the Go client for the ragfleet HTTP API.
package ragfleet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to a ragfleet server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ragfleet: base URL required")
	}

	cfg := &clientConfig{httpClient: http.DefaultClient}
	for _, o := range opts {
		o.apply(cfg)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		http:    cfg.httpClient,
	}, nil
}

// Register onboards a tenant and starts its worker.
func (c *Client) Register(ctx context.Context, tenantID, workerCredential, modelCredential string) (Tenant, error) {
	body := map[string]string{
		"tenant_id":         tenantID,
		"worker_credential": workerCredential,
		"model_credential":  modelCredential,
	}
	var out Tenant
	err := c.doJSON(ctx, http.MethodPost, "/tenants", body, &out)
	return out, err
}

// Status returns the tenant record with live worker state.
func (c *Client) Status(ctx context.Context, tenantID string) (Tenant, error) {
	var out Tenant
	err := c.doJSON(ctx, http.MethodGet, "/tenants/"+tenantID, nil, &out)
	return out, err
}

// Stop terminates the tenant's worker, keeping its data.
func (c *Client) Stop(ctx context.Context, tenantID string) error {
	return c.doJSON(ctx, http.MethodPost, "/tenants/"+tenantID+"/stop", nil, nil)
}

// Restart stops and respawns the tenant's worker.
func (c *Client) Restart(ctx context.Context, tenantID string) error {
	return c.doJSON(ctx, http.MethodPost, "/tenants/"+tenantID+"/restart", nil, nil)
}

// Delete removes the tenant, its worker and all its indexed data.
func (c *Client) Delete(ctx context.Context, tenantID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tenants/"+tenantID, nil, nil)
}

// Upload ingests a zip archive of documents for the tenant.
func (c *Client) Upload(ctx context.Context, tenantID string, archive []byte) (IngestReport, error) {
	req, err := c.newRequest(ctx, http.MethodPost,
		"/tenants/"+tenantID+"/documents", bytes.NewReader(archive))
	if err != nil {
		return IngestReport{}, err
	}
	req.Header.Set("Content-Type", "application/zip")

	var out IngestReport
	err = c.send(req, &out)
	return out, err
}

// Query asks a question against the tenant's indexed documents.
func (c *Client) Query(ctx context.Context, tenantID, question string) (QueryResult, error) {
	var out QueryResult
	err := c.doJSON(ctx, http.MethodPost, "/tenants/"+tenantID+"/query",
		map[string]string{"question": question}, &out)
	return out, err
}

// Clear wipes the tenant's indexed documents and usage counters.
func (c *Client) Clear(ctx context.Context, tenantID string) error {
	return c.doJSON(ctx, http.MethodPost, "/tenants/"+tenantID+"/clear", nil, nil)
}

// Stats returns the tenant's document and chunk counts.
func (c *Client) Stats(ctx context.Context, tenantID string) (Stats, error) {
	var out Stats
	err := c.doJSON(ctx, http.MethodGet, "/tenants/"+tenantID+"/stats", nil, &out)
	return out, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ragfleet: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("ragfleet: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ragfleet: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ragfleet: decode response: %w", err)
	}
	return nil
}
