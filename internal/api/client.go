// ABOUTME: Gateway HTTP client with identity headers and directory queries.
// ABOUTME: Implements the session/agent query contracts used by the thread manager.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/2389/familiar/internal/session"
)

// ErrUnauthorized is returned when the gateway rejects the token.
var ErrUnauthorized = errors.New("gateway rejected credentials")

// TokenSource supplies the bearer token per request so rotation is picked up
// without restarting.
type TokenSource func() string

// Identity is attached to every request so the gateway can scope queries and
// route messages.
type Identity struct {
	UserID    string
	Workspace string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      TokenSource
	Identity   Identity
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the gateway's HTTP API. All methods honor context
// cancellation and return wrapped errors with the failing endpoint.
type Client struct {
	baseURL  string
	token    TokenSource
	identity Identity
	http     *http.Client
	logger   *slog.Logger
}

// New creates a gateway client. The HTTP client defaults to a 30s-timeout
// client; SSE requests override the timeout per call.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:  opts.BaseURL,
		token:    token,
		identity: opts.Identity,
		http:     httpClient,
		logger:   logger.With("component", "api"),
	}
}

// newRequest builds a request with the standard identity headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body *requestBody) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body.reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("X-User-Context", "authenticated")
	} else {
		req.Header.Set("X-User-Context", "unauthenticated")
	}
	if c.identity.UserID != "" {
		req.Header.Set("X-User-ID", c.identity.UserID)
	}
	if c.identity.Workspace != "" {
		req.Header.Set("X-Workspace-ID", c.identity.Workspace)
	}
	return req, nil
}

// agentInfo is the JSON shape of GET /api/agents entries.
type agentInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url,omitempty"`
	Port    int    `json:"port,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// ListAgents fetches the enabled agents. Agents explicitly marked disabled
// are filtered out; absence of the flag means enabled.
func (c *Client) ListAgents(ctx context.Context) ([]session.AgentDescriptor, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/agents", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching agents: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetching agents: %w", err)
	}

	var agents []agentInfo
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		return nil, fmt.Errorf("parsing agents response: %w", err)
	}

	out := make([]session.AgentDescriptor, 0, len(agents))
	for _, a := range agents {
		if a.Enabled != nil && !*a.Enabled {
			continue
		}
		out = append(out, session.AgentDescriptor{
			ID:      a.ID,
			Name:    a.Name,
			BaseURL: a.BaseURL,
			Port:    a.Port,
		})
	}
	return out, nil
}

// sessionRow is the JSON shape of GET /api/sessions entries. Timestamps stay
// untyped; the backend emits ISO strings or epoch numbers depending on the
// storage path.
type sessionRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AgentID      string `json:"agent_id,omitempty"`
	AgentName    string `json:"agent_name,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
	CreatedAt    any    `json:"created_at,omitempty"`
	UpdatedAt    any    `json:"updated_at,omitempty"`
	WorkspaceID  string `json:"workspace_id,omitempty"`
}

// sessionsResponse is the JSON response from GET /api/sessions.
type sessionsResponse struct {
	Sessions []sessionRow `json:"sessions"`
	Count    int          `json:"count"`
}

// ListSessions fetches recent sessions for the workspace, newest first.
func (c *Client) ListSessions(ctx context.Context, workspaceID string, limit int) ([]session.SessionInfo, error) {
	q := url.Values{}
	if workspaceID != "" {
		q.Set("workspace", workspaceID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching sessions: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetching sessions: %w", err)
	}

	var body sessionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing sessions response: %w", err)
	}

	out := make([]session.SessionInfo, 0, len(body.Sessions))
	for _, row := range body.Sessions {
		out = append(out, session.SessionInfo{
			ID:           row.ID,
			Title:        row.Title,
			AgentID:      row.AgentID,
			AgentName:    row.AgentName,
			MessageCount: row.MessageCount,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
			WorkspaceID:  row.WorkspaceID,
		})
	}
	return out, nil
}

// checkStatus maps a non-200 response to an error, preferring the gateway's
// JSON error message when it sent one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.Header.Get("Content-Type") == "application/json" {
		var errResp map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			if msg, ok := errResp["error"]; ok && msg != "" {
				return errors.New(msg)
			}
		}
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
