package compendium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrSourceUnavailable marks the authoritative remote store as empty or
// unreachable for the primary entity type. Fatal for a cold session with no
// cache; absorbed when any cache tier is warm.
var ErrSourceUnavailable = errors.New("authoritative source unavailable")

// RemoteClient reads bulk entity tables from the remote store's HTTP query
// surface. The engine depends only on "all rows for entity X" and "rows for
// entity X filtered to index-relevant columns"; any store satisfying that
// contract is substitutable.
type RemoteClient struct {
	baseURL string
	client  *http.Client
}

// NewRemoteClient creates a client for the store rooted at baseURL.
func NewRemoteClient(baseURL string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

const maxResponseBytes = 64 * 1024 * 1024

// fetchTable downloads one entity table and decodes it into rows.
func fetchTable[R any](ctx context.Context, c *RemoteClient, path string) ([]R, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rows []R
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return rows, nil
}
