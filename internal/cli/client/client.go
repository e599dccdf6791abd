package client

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

	"github.com/rs/zerolog"

	"github.com/postboard-dev/postboard/internal/session"
)

const defaultVersion = "v1"

// TokenSource supplies the credential for authenticated calls
type TokenSource interface {
	Get() (string, bool)
}

// Client represents an HTTP client for the postboard API
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
	tokens     TokenSource
	logger     zerolog.Logger
}

// New creates a new API client for baseURL (e.g. https://api.postboard.dev)
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: defaultVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zerolog.Nop(),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// SetVersion sets the API version prefix
func (c *Client) SetVersion(version string) {
	if version != "" {
		c.version = strings.Trim(version, "/")
	}
}

// SetTokenSource sets where authenticated calls read the credential from
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// SetLogger sets the logger failed requests are reported to
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// APIError is the normalized failure of an API call
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of err if it is an *APIError, else 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	token  string
	auth   bool
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, strings.TrimLeft(path, "/"))
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// do sends req and returns the raw response body of a 2xx answer
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	endpoint := c.endpoint(req.path, req.query)

	var body io.Reader
	if req.body != nil && req.method != http.MethodGet {
		jsonData, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	token := req.token
	if token == "" && req.auth && c.tokens != nil {
		token, _ = c.tokens.Get()
	}
	if token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.method).Str("url", endpoint).Msg("API request failed")
		return nil, &APIError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
		c.logger.Warn().
			Str("method", req.method).
			Str("url", endpoint).
			Int("status", apiErr.Status).
			Str("error", apiErr.Message).
			Msg("API request failed")
		return nil, apiErr
	}

	return data, nil
}

// errorMessage extracts the "error" field of an error body. The API answers
// either {"error": "msg"} or {"error": {"message": "msg"}}.
func errorMessage(data []byte, status int) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Error) > 0 {
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err == nil && msg != "" {
			return msg
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}

	if text := strings.TrimSpace(string(data)); text != "" && len(text) < 200 {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func (c *Client) getJSON(ctx context.Context, req request, out any) error {
	data, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SignInRequest represents the sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates the user and returns the credential with its user
func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Credentials, error) {
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/sign-in",
		body:   SignInRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	return session.ParseCredentials(data)
}

// SignUpRequest represents the sign-up request body
type SignUpRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// SignUp registers a new account. The caller signs in separately.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*session.User, error) {
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "auth/sign-up",
		body:   req,
	})
	if err != nil {
		return nil, err
	}

	return session.ParseUser(data)
}

// FetchProfile returns the user credential belongs to. A null body yields a
// nil user.
func (c *Client) FetchProfile(ctx context.Context, credential string) (*session.User, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "auth/me",
		token:  credential,
	})
	if err != nil {
		return nil, err
	}

	return session.ParseUser(data)
}

// RoleOption is a role offered at sign-up
type RoleOption struct {
	ID          string   `json:"id"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ListRoles returns the roles a new account can pick
func (c *Client) ListRoles(ctx context.Context) ([]RoleOption, error) {
	var roles []RoleOption
	if err := c.getJSON(ctx, request{method: http.MethodGet, path: "roles"}, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}
