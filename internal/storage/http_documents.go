package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPDocumentStore talks to the storefront backend's data endpoints:
// GET {base}/api/data/{name} and POST {base}/api/data/{name}.
type HTTPDocumentStore struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPDocumentStore(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPDocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPDocumentStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (s *HTTPDocumentStore) documentURL(name string) string {
	return s.baseURL + "/api/data/" + url.PathEscape(name)
}

func (s *HTTPDocumentStore) LoadDocument(ctx context.Context, name string, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.documentURL(name), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: fetch %s: %v", ErrBackendUnavailable, name, err)
	}
	defer resp.Body.Close()

	// A missing document is not an error here
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: fetch %s: %s", ErrBackendUnavailable, name, backendMessage(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrBackendUnavailable, name, err)
	}
	if len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("decode document %s: %w", name, err)
	}
	return true, nil
}

func (s *HTTPDocumentStore) SaveDocument(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.documentURL(name), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrBackendUnavailable, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := backendMessage(resp)
		s.logger.Warn("backend rejected document save", "document", name, "status", resp.StatusCode, "message", msg)
		return fmt.Errorf("%w: save %s: %s", ErrBackendUnavailable, name, msg)
	}
	return nil
}

// backendMessage extracts {"message": "..."} from an error response.
func backendMessage(resp *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return resp.Status
}
