package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/repolens/repolens/internal/models"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNotFound means GitHub reports the repository does not exist.
	ErrNotFound = errors.New("repository not found")
	// ErrUpstream covers every other non-success response from GitHub.
	ErrUpstream = errors.New("github api failure")
)

const readmeExcerptLimit = 3000

// Client is a thin wrapper around the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// GetRepo fetches repository metadata. A single attempt, no retries;
// the pipeline treats any failure here as terminal for the request.
func (c *Client) GetRepo(ctx context.Context, ref models.RepoRef) (*models.RepoMetadata, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, ref.Owner, ref.Name)
	resp, err := c.get(ctx, url, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.FullName())
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var meta models.RepoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata: %v", ErrUpstream, err)
	}
	return &meta, nil
}

// GetReadme fetches the repository README via the raw-content endpoint,
// capped to the first 3000 characters. Any non-200 response degrades to a
// placeholder rather than an error; a README is optional context.
func (c *Client) GetReadme(ctx context.Context, ref models.RepoRef) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/readme", c.baseURL, ref.Owner, ref.Name)
	resp, err := c.get(ctx, url, "application/vnd.github.v3.raw")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "No README available.", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, readmeExcerptLimit))
	if err != nil {
		return "", fmt.Errorf("%w: reading readme: %v", ErrUpstream, err)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}
