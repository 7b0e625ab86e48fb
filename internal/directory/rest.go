package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTable   = "esp32_connections"
	defaultTimeout = 5 * time.Second
)

// REST reads the registration table through a PostgREST endpoint
// (Supabase style: {base}/rest/v1/{table}).
type REST struct {
	baseURL string
	apiKey  string
	table   string
	client  *http.Client
}

func NewREST(baseURL, apiKey, table string, timeout time.Duration) *REST {
	if table == "" {
		table = defaultTable
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &REST{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		client:  &http.Client{Timeout: timeout},
	}
}

type registration struct {
	IP string `json:"ip"`
}

func (r *REST) LatestAddress(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("select", "ip")
	q.Set("order", "timestamp.desc")
	q.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", r.baseURL, url.PathEscape(r.table), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var rows []registration
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return "", fmt.Errorf("decode directory response: %w", err)
	}
	if len(rows) == 0 {
		return "", ErrNoAddress
	}
	return cleanAddress(rows[0].IP)
}
