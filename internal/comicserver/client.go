package comicserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/longbox/internal/domain"
)

const (
	// Applies to calls whose context carries no deadline. Update requests
	// are held open by the server, so their deadline follows the request budget.
	defaultTimeout = 30 * time.Second
	updatesSlack   = 10 * time.Second
	userAgent      = "Longbox/1.0"
)

// HTTPError is a non-2xx response from the server
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match any rejection with domain.ErrRequestRejected and
// credential problems with domain.ErrAuthFailed.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case domain.ErrRequestRejected:
		return true
	case domain.ErrAuthFailed:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case domain.ErrComicNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

// Client implements domain.LibraryClient for the comic library server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.LibraryClient = (*Client)(nil)

// NewClient creates a new library server client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// FetchUpdates returns comics changed after the request watermark
func (c *Client) FetchUpdates(ctx context.Context, req domain.UpdateRequest) (domain.UpdateBatch, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatInt(req.Since, 10))
	query.Set("lastId", strconv.FormatInt(req.LastComicID, 10))

	body := UpdatesRequest{
		Timeout:             req.TimeoutSeconds,
		MaximumResults:      req.MaximumResults,
		LastProcessingCount: req.LastProcessingCount,
		LastRescanCount:     req.LastRescanCount,
	}

	var resp UpdatesResponse
	ctx, cancel := withDefaultDeadline(ctx, updatesTimeout(req))
	defer cancel()

	if err := c.doJSON(ctx, http.MethodPost, "/api/library/updates", query, body, &resp); err != nil {
		return domain.UpdateBatch{}, err
	}

	batch := MapBatch(resp)
	c.logger.Debug("fetched updates", "count", len(batch.Comics), "more", batch.MoreUpdates)
	return batch, nil
}

// DeleteComics flags comics for deletion. The change reaches the client
// through a later FetchUpdates.
func (c *Client) DeleteComics(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := withDefaultDeadline(ctx, defaultTimeout)
	defer cancel()

	if err := c.doJSON(ctx, http.MethodPost, "/api/comics/delete", nil, DeleteRequest{IDs: ids}, nil); err != nil {
		return err
	}
	c.logger.Info("requested comic deletion", "count", len(ids))
	return nil
}

// GetComic returns the current server copy of one comic
func (c *Client) GetComic(ctx context.Context, id int64) (*domain.Comic, error) {
	var dto ComicDTO
	path := fmt.Sprintf("/api/comics/%d", id)
	ctx, cancel := withDefaultDeadline(ctx, defaultTimeout)
	defer cancel()

	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &dto); err != nil {
		if errors.Is(err, domain.ErrComicNotFound) {
			return nil, domain.ErrComicNotFound
		}
		return nil, err
	}
	comic := mapComic(dto)
	return &comic, nil
}

// Ping checks that the server is reachable and the token is accepted.
// Returns the server version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var status StatusResponse
	ctx, cancel := withDefaultDeadline(ctx, defaultTimeout)
	defer cancel()

	if err := c.doJSON(ctx, http.MethodGet, "/api/status", nil, nil, &status); err != nil {
		return "", err
	}
	return status.Version, nil
}

// doJSON performs an authenticated request with an optional JSON body and
// decodes a JSON response into out when out is non-nil.
// updatesTimeout is how long an updates request may take: the server hold
// time plus slack for the response itself.
func updatesTimeout(req domain.UpdateRequest) time.Duration {
	return time.Duration(req.TimeoutSeconds)*time.Second + updatesSlack
}

// withDefaultDeadline bounds ctx by d unless the caller already set a deadline.
func withDefaultDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("library request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("library request failed", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("library request error", "status", resp.StatusCode, "body", string(respBody))
		return newHTTPError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(respBody))
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: status}
	var payload ErrorResponse
	if json.Unmarshal(body, &payload) == nil && (payload.Code != "" || payload.Message != "") {
		httpErr.Code = payload.Code
		httpErr.Message = payload.Message
		return httpErr
	}
	httpErr.Message = strings.TrimSpace(string(body))
	if httpErr.Message == "" {
		httpErr.Message = http.StatusText(status)
	}
	return httpErr
}
