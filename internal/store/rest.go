package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/shared"
)

// RESTStore talks to a hosted row store speaking the PostgREST dialect:
// equality filters as `col=eq.value` query params, merge-duplicates upsert,
// and a websocket endpoint for change notification.
type RESTStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

var _ Store = (*RESTStore)(nil)

// NewRESTStore creates a REST row-store client. httpClient defaults to
// [http.DefaultClient].
func NewRESTStore(baseURL, apiKey string, httpClient *http.Client, logger *log.Logger) *RESTStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *RESTStore) doRequest(ctx context.Context, method, endpoint string, prefer string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("row store rejected request (status %d): %w", resp.StatusCode, shared.ErrPermissionDenied)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var errResp struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("row store error (status %d): %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("row store error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// filterQuery renders an equality filter as PostgREST query params.
func filterQuery(filter Filter) string {
	if len(filter) == 0 {
		return ""
	}
	params := url.Values{}
	for key, val := range filter {
		params.Set(key, "eq."+stringify(val))
	}
	return "?" + params.Encode()
}

// Upsert inserts or replaces a row by primary key.
func (s *RESTStore) Upsert(ctx context.Context, table string, row Row) error {
	endpoint := fmt.Sprintf("/rest/v1/%s", table)
	return s.doRequest(ctx, http.MethodPost, endpoint, "resolution=merge-duplicates", row, nil)
}

// Update patches every row matching filter.
func (s *RESTStore) Update(ctx context.Context, table string, filter Filter, patch Row) error {
	endpoint := fmt.Sprintf("/rest/v1/%s%s", table, filterQuery(filter))
	return s.doRequest(ctx, http.MethodPatch, endpoint, "", patch, nil)
}

// Select returns all rows matching filter.
func (s *RESTStore) Select(ctx context.Context, table string, filter Filter) ([]Row, error) {
	endpoint := fmt.Sprintf("/rest/v1/%s%s", table, filterQuery(filter))
	var rows []Row
	if err := s.doRequest(ctx, http.MethodGet, endpoint, "", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Subscribe opens a realtime websocket channel for the table and invokes
// fn on each matching change until unsubscribed.
func (s *RESTStore) Subscribe(ctx context.Context, table string, filter Filter, fn func(Event)) (Unsubscribe, error) {
	client := newRealtimeClient(s.baseURL, s.apiKey, s.logger)
	return client.subscribe(ctx, table, filter, fn)
}
