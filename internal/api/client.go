// Package api is the HTTP client for the comment and reaction backend.
// Every response is normalized here; callers only see canonical models and
// typed errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

// Client handles HTTP API communication
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. A non-positive limit
// disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a new API client. baseURL includes the API prefix,
// for example http://localhost:8080/api/v1.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with common handling
func (c *Client) doRequest(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, models.NewNetworkFailure(fmt.Errorf("rate limiter: %w", err))
		}
	}

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, models.NewNetworkFailure(fmt.Errorf("failed to marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, models.NewNetworkFailure(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.Classify(fmt.Errorf("request failed: %w", err))
	}
	logger.Debugf("api: %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	return resp, nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// decodeAPIResponse decodes the envelope and returns its data field.
// Status codes and success:false are mapped onto the error taxonomy.
func decodeAPIResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewNetworkFailure(fmt.Errorf("failed to read response: %w", err))
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(body, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = firstNonEmpty(apiResp.Error, apiResp.Message)
		}
		return nil, statusError(resp.StatusCode, msg)
	}

	if decodeErr != nil {
		return nil, models.NewNetworkFailure(fmt.Errorf("failed to decode response: %w", decodeErr))
	}

	if !apiResp.Success {
		return nil, models.NewBackendRejected(firstNonEmpty(apiResp.Error, apiResp.Message), resp.StatusCode)
	}

	return apiResp.Data, nil
}

func statusError(status int, msg string) error {
	switch status {
	case http.StatusUnauthorized:
		e := *models.ErrUnauthenticated
		e.StatusCode = status
		return &e
	case http.StatusNotFound:
		e := *models.ErrNotFound
		e.StatusCode = status
		if msg != "" {
			e.Err = errors.New(msg)
		}
		return &e
	default:
		if msg == "" {
			msg = fmt.Sprintf("the server answered %d", status)
		}
		return models.NewBackendRejected(msg, status)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Comment endpoints

// FetchComments loads the flat comment list of an article. viewerID
// personalizes current_user_reaction and may be empty.
func (c *Client) FetchComments(ctx context.Context, articleID int64, viewerID string) ([]models.Comment, error) {
	path := "/articles/" + formatID(articleID) + "/comments"
	if viewerID != "" {
		path += "?viewer_id=" + url.QueryEscape(viewerID)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	data, err := decodeAPIResponse(resp)
	if err != nil {
		return nil, err
	}

	list, err := decodeCommentList(data)
	if err != nil {
		return nil, models.NewNetworkFailure(err)
	}
	return list, nil
}

// CreateComment posts a comment, or a reply when parentID is set
func (c *Client) CreateComment(ctx context.Context, cred models.Credential, articleID int64, content string, parentID *int64) (*models.CreateResult, error) {
	if !cred.Valid() {
		return nil, models.ErrUnauthenticated
	}
	body := models.CreateCommentRequest{
		Content:  content,
		AuthorID: cred.UserID,
		ParentID: parentID,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/articles/"+formatID(articleID)+"/comments", cred.Token, body)
	if err != nil {
		return nil, err
	}
	data, err := decodeAPIResponse(resp)
	if err != nil {
		return nil, err
	}

	res, err := decodeCreateResult(data)
	if err != nil {
		return nil, models.NewNetworkFailure(err)
	}
	return res, nil
}

// DeleteComment deletes a comment; the backend removes its replies too
func (c *Client) DeleteComment(ctx context.Context, cred models.Credential, commentID int64) error {
	if !cred.Valid() {
		return models.ErrUnauthenticated
	}
	resp, err := c.doRequest(ctx, http.MethodDelete, "/comments/"+formatID(commentID), cred.Token, nil)
	if err != nil {
		return err
	}
	_, err = decodeAPIResponse(resp)
	return err
}

// Reaction endpoints

// SetReaction adds or replaces the user's reaction on target
func (c *Client) SetReaction(ctx context.Context, cred models.Credential, target models.Target, r models.Reaction) (*models.ReactionResult, error) {
	if !cred.Valid() {
		return nil, models.ErrUnauthenticated
	}
	body := models.SetReactionRequest{Type: r, UserID: cred.UserID}

	resp, err := c.doRequest(ctx, http.MethodPut, reactionPath(target), cred.Token, body)
	if err != nil {
		return nil, err
	}
	return decodeReaction(resp)
}

// ClearReaction removes the user's reaction from target
func (c *Client) ClearReaction(ctx context.Context, cred models.Credential, target models.Target) (*models.ReactionResult, error) {
	if !cred.Valid() {
		return nil, models.ErrUnauthenticated
	}
	path := reactionPath(target) + "?user_id=" + url.QueryEscape(cred.UserID)

	resp, err := c.doRequest(ctx, http.MethodDelete, path, cred.Token, nil)
	if err != nil {
		return nil, err
	}
	return decodeReaction(resp)
}

// FetchReaction returns target's counters. viewerID personalizes the user
// reaction and may be empty.
func (c *Client) FetchReaction(ctx context.Context, target models.Target, viewerID string) (models.ReactionState, error) {
	path := reactionPath(target)
	if viewerID != "" {
		path += "?viewer_id=" + url.QueryEscape(viewerID)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return models.ReactionState{}, err
	}
	res, err := decodeReaction(resp)
	if err != nil {
		return models.ReactionState{}, err
	}

	var state models.ReactionState
	if res.LikeCount != nil {
		state.LikeCount = *res.LikeCount
	}
	if res.DislikeCount != nil {
		state.DislikeCount = *res.DislikeCount
	}
	if res.UserReaction != nil {
		state.UserReaction = *res.UserReaction
	}
	return state.Normalized(), nil
}

func reactionPath(target models.Target) string {
	return "/reactions/" + string(target.Kind) + "/" + formatID(target.ID)
}

func decodeReaction(resp *http.Response) (*models.ReactionResult, error) {
	data, err := decodeAPIResponse(resp)
	if err != nil {
		return nil, err
	}
	res, err := decodeReactionResult(data)
	if err != nil {
		return nil, models.NewNetworkFailure(err)
	}
	return res, nil
}

// Account endpoints

// Register creates an account on the backend
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return err
	}
	_, err = decodeAPIResponse(resp)
	return err
}

// Login exchanges a username and password for a bearer token
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	body := models.LoginRequest{Username: username, Password: password}
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", body)
	if err != nil {
		return nil, err
	}
	data, err := decodeAPIResponse(resp)
	if err != nil {
		return nil, err
	}

	var out models.LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, models.NewNetworkFailure(fmt.Errorf("failed to decode login response: %w", err))
	}
	if out.Token == "" {
		return nil, models.NewBackendRejected("login response without token", resp.StatusCode)
	}
	return &out, nil
}
