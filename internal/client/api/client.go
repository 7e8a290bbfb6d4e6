package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/offlinehq/chatsync/pkg/api"
)

// ClientAPI defines the authority operations the sync engine depends on
type ClientAPI interface {
	CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error)
	GetUserByName(ctx context.Context, username string) (*api.User, error)
	GetUserByID(ctx context.Context, id string) (*api.User, error)

	CreateGroup(ctx context.Context, req api.CreateGroupRequest) (*api.Group, error)
	ListGroups(ctx context.Context) ([]api.Group, error)
	DeleteGroup(ctx context.Context, groupID, userID string) (*api.Group, error)
	JoinGroup(ctx context.Context, groupID, userID string) error

	CreateMessage(ctx context.Context, req api.CreateMessageRequest) (*api.Message, error)

	MessageEvents(ctx context.Context, since int64, limit int, userID string) ([]api.MessageEvent, error)
	GroupEvents(ctx context.Context, since int64, limit int) ([]api.GroupEvent, error)

	Ping(ctx context.Context) error
}

// Client is the HTTP client for the authority
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient creates a new authority API client. A bounded per-request
// timeout keeps a dead connection from suspending the sync actor forever.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// CreateUser registers a new user. Duplicate usernames yield a 409
// StatusError; the caller resolves it via GetUserByName.
func (c *Client) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodPost, "/users", req, &resp); err != nil {
		return nil, fmt.Errorf("create user request failed: %w", err)
	}
	return &resp, nil
}

// GetUserByName resolves a user by username
func (c *Client) GetUserByName(ctx context.Context, username string) (*api.User, error) {
	var resp api.User
	path := "/users/" + url.PathEscape(username)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get user request failed: %w", err)
	}
	return &resp, nil
}

// GetUserByID resolves a user by id
func (c *Client) GetUserByID(ctx context.Context, id string) (*api.User, error) {
	var resp api.User
	path := "/users/id/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get user request failed: %w", err)
	}
	return &resp, nil
}

// CreateGroup submits an idempotent group upsert keyed by the client id
func (c *Client) CreateGroup(ctx context.Context, req api.CreateGroupRequest) (*api.Group, error) {
	var resp api.Group
	if err := c.doRequest(ctx, http.MethodPost, "/groups", req, &resp); err != nil {
		return nil, fmt.Errorf("create group request failed: %w", err)
	}
	return &resp, nil
}

// ListGroups fetches all groups
func (c *Client) ListGroups(ctx context.Context) ([]api.Group, error) {
	var resp []api.Group
	if err := c.doRequest(ctx, http.MethodGet, "/groups", nil, &resp); err != nil {
		return nil, fmt.Errorf("list groups request failed: %w", err)
	}
	return resp, nil
}

// DeleteGroup hard-deletes a group on behalf of userID
func (c *Client) DeleteGroup(ctx context.Context, groupID, userID string) (*api.Group, error) {
	var resp api.Group
	path := "/groups/" + url.PathEscape(groupID)
	req := api.DeleteGroupRequest{UserID: userID}
	if err := c.doRequest(ctx, http.MethodDelete, path, req, &resp); err != nil {
		return nil, fmt.Errorf("delete group request failed: %w", err)
	}
	return &resp, nil
}

// JoinGroup adds userID to a group; joining twice is not an error
func (c *Client) JoinGroup(ctx context.Context, groupID, userID string) error {
	path := "/groups/" + url.PathEscape(groupID) + "/join"
	req := api.JoinGroupRequest{UserID: userID}
	var resp api.JoinGroupResponse
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return fmt.Errorf("join group request failed: %w", err)
	}
	return nil
}

// CreateMessage submits an idempotent message create keyed by the client id
func (c *Client) CreateMessage(ctx context.Context, req api.CreateMessageRequest) (*api.Message, error) {
	var resp api.Message
	if err := c.doRequest(ctx, http.MethodPost, "/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("create message request failed: %w", err)
	}
	return &resp, nil
}

// MessageEvents fetches the privacy-filtered message feed after the cursor
func (c *Client) MessageEvents(ctx context.Context, since int64, limit int, userID string) ([]api.MessageEvent, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(since, 10))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("userId", userID)

	var resp api.MessageEventsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/events/messages?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("message events request failed: %w", err)
	}
	return resp.Events, nil
}

// GroupEvents fetches the public group feed after the cursor
func (c *Client) GroupEvents(ctx context.Context, since int64, limit int) ([]api.GroupEvent, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(since, 10))
	q.Set("limit", strconv.Itoa(limit))

	var resp api.GroupEventsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/events/groups?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("group events request failed: %w", err)
	}
	return resp.Events, nil
}

// Ping checks whether the authority is reachable
func (c *Client) Ping(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request against the authority. Non-2xx
// responses become *StatusError so callers can classify them.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			statusErr.Message = errResp.Error
		}
		return statusErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
