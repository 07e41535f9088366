// Package client is a typed client for the attriscope REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// APIError is a non-2xx response from the server, with the message parsed
// from the error body where possible.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %d", e.StatusCode)
}

// DecodeError is a response body that could not be decoded into the expected
// type.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client talks to one attriscope server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token for the authenticated endpoints.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Projects lists every project of the workspace.
func (c *Client) Projects(ctx context.Context) ([]ProjectSummary, error) {
	var out []ProjectSummary
	if err := c.getJSON(ctx, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Project fetches the full description of one project.
func (c *Client) Project(ctx context.Context, id int) (*Project, error) {
	var out Project
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sample fetches one dataset sample.
func (c *Client) Sample(ctx context.Context, projectID, index int) (*Sample, error) {
	var out Sample
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/%d/dataset/%d", projectID, index), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SampleImage fetches the JPEG image of one dataset sample.
func (c *Client) SampleImage(ctx context.Context, projectID, index int) ([]byte, error) {
	return c.getBytes(ctx, fmt.Sprintf("/api/projects/%d/dataset/%d/image", projectID, index), nil)
}

// Attribution fetches one attribution. imageMode selects the image URLs:
// input, attribution or overlay; empty defaults to input.
func (c *Client) Attribution(ctx context.Context, projectID, index int, imageMode string) (*Attribution, error) {
	query := url.Values{}
	if imageMode != "" {
		query.Set("imageMode", imageMode)
	}
	var out Attribution
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/%d/attributions/%d", projectID, index), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Heatmap fetches the rendered heatmap of one attribution as JPEG.
func (c *Client) Heatmap(ctx context.Context, projectID, index int, colorMap string, superimpose bool) ([]byte, error) {
	query := url.Values{}
	if colorMap != "" {
		query.Set("colorMap", colorMap)
	}
	query.Set("superimpose", strconv.FormatBool(superimpose))
	return c.getBytes(ctx, fmt.Sprintf("/api/projects/%d/attributions/%d/heatmap", projectID, index), query)
}

// Analysis fetches one analysis of the given method.
func (c *Client) Analysis(ctx context.Context, projectID int, method, category, clustering, embedding string) (*Analysis, error) {
	query := url.Values{}
	query.Set("category", category)
	query.Set("clustering", clustering)
	query.Set("embedding", embedding)
	var out Analysis
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/%d/analyses/%s", projectID, url.PathEscape(method)), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ColorMaps lists the supported color maps.
func (c *Client) ColorMaps(ctx context.Context) ([]ColorMap, error) {
	var out []ColorMap
	if err := c.getJSON(ctx, "/api/color-maps", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ColorMapPreview fetches the gradient preview of a color map as PNG.
// Non-positive width or height fall back to the server defaults.
func (c *Client) ColorMapPreview(ctx context.Context, name string, width, height int) ([]byte, error) {
	query := url.Values{}
	if width > 0 {
		query.Set("width", strconv.Itoa(width))
	}
	if height > 0 {
		query.Set("height", strconv.Itoa(height))
	}
	return c.getBytes(ctx, "/api/color-maps/"+url.PathEscape(name), query)
}

// TriggerJob queues one analysis run.
func (c *Client) TriggerJob(ctx context.Context, projectID int, req JobRequest) (*JobQueued, error) {
	var out JobQueued
	if err := c.postJSON(ctx, fmt.Sprintf("/api/projects/%d/jobs", projectID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestJobs lists the most recent jobs of a project.
func (c *Client) LatestJobs(ctx context.Context, projectID, limit int) ([]Job, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []Job
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/%d/jobs/latest", projectID), query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Job fetches one job by ID.
func (c *Client) Job(ctx context.Context, projectID int, jobID string) (*Job, error) {
	var out Job
	if err := c.getJSON(ctx, fmt.Sprintf("/api/projects/%d/jobs/%s", projectID, url.PathEscape(jobID)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summarize asks the server for an AI summary of one analysis. The raw JSON
// answer of the model is returned.
func (c *Client) Summarize(ctx context.Context, projectID int, method string, req SummaryRequest) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/projects/%d/analyses/%s/summary", projectID, url.PathEscape(method)), nil, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &DecodeError{Type: "summary", Err: fmt.Errorf("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decodeJSON(body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return err
	}
	return decodeJSON(body, out)
}

// decodeJSON unmarshals a response body. An empty or null body counts as an
// absent payload, not as a zero-valued DTO.
func decodeJSON(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &DecodeError{Type: fmt.Sprintf("%T", out), Err: errors.New("payload is absent")}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &DecodeError{Type: fmt.Sprintf("%T", out), Err: err}
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.ErrorMessage != "" {
		return payload.ErrorMessage
	}
	return strings.TrimSpace(string(body))
}
