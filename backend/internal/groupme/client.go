package groupme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"groupme-analyzer/backend/internal/constants"
	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"
	"groupme-analyzer/backend/pkg/logger"

	"go.uber.org/zap"
)

// Client talks to the GroupMe v3 REST API with a developer access token
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL authenticating with token
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Get(),
	}
}

// Groups lists every group the token's account belongs to, following
// page numbers until the API returns a short page
func (c *Client) Groups(ctx context.Context) ([]state.Group, error) {
	var out []state.Group
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(constants.GroupListPageSize))

		var groups []groupDTO
		if _, err := c.get(ctx, "list groups", "/groups", params, &groups); err != nil {
			return nil, err
		}
		for _, g := range groups {
			out = append(out, g.toGroup())
		}

		if len(groups) < constants.GroupListPageSize {
			break
		}
	}

	c.logger.Debug("Listed groups", zap.Int("count", len(out)))
	return out, nil
}

// MessagePage returns up to limit messages of groupID older than beforeID, newest first.
// GroupMe answers 304 Not Modified once there is nothing older; that is an empty page.
func (c *Client) MessagePage(ctx context.Context, groupID, beforeID string, limit int) ([]state.Message, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if beforeID != "" {
		params.Set("before_id", beforeID)
	}

	var page messagePageDTO
	status, err := c.get(ctx, "message page", "/groups/"+url.PathEscape(groupID)+"/messages", params, &page)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotModified {
		return nil, nil
	}

	out := make([]state.Message, 0, len(page.Messages))
	for _, m := range page.Messages {
		out = append(out, m.toMessage())
	}
	return out, nil
}

// get performs a GET and decodes the "response" member of the envelope into out
func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out interface{}) (int, error) {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, apperrors.NewTransportFailed(operation, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.NewTransportFailed(operation, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, apperrors.NewTransportFailed(operation, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("GroupMe request rejected",
			zap.String("operation", operation),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return resp.StatusCode, apperrors.NewTransportFailed(operation, resp.StatusCode, apiError(body))
	}

	env := envelope{Response: out}
	if err := json.Unmarshal(body, &env); err != nil {
		return resp.StatusCode, apperrors.NewTransportFailed(operation, resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}
	if env.Response == nil {
		return resp.StatusCode, apperrors.NewTransportFailed(operation, resp.StatusCode, fmt.Errorf("response body has no data"))
	}

	return resp.StatusCode, nil
}

// apiError extracts meta.errors from an error body when present
func apiError(body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Meta.Errors) > 0 {
		return fmt.Errorf("%s", strings.Join(env.Meta.Errors, "; "))
	}
	return nil
}
