// SPDX-License-Identifier: MIT
// Grounded on client/api/client.go's APIClient: a thin net/http wrapper
// carrying a base URL, bearer token, and User-Agent, with one get/post
// helper decoding the {ok,data,error,message} envelope. Generalized from
// a single-purpose search client to a full CRUD client over queued's
// /auth, /option, /permissions, /plugin(s), /reports, /status,
// /task(s), /user(s) surface (spec.md §6).
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a queued daemon's HTTP API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userAgent  string
}

// envelope mirrors internal/httpapi's APIResponse; kept as a local type
// so this package never imports the daemon's internals.
type envelope struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// New creates a client bound to baseURL (e.g. "http://localhost:8080"),
// optionally pre-authenticated with token. timeout <= 0 defaults to 30s.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "queued-cli/dev",
	}
}

// SetUserAgent overrides the default User-Agent, called from main with
// the linked build version.
func (c *Client) SetUserAgent(version string) {
	c.userAgent = fmt.Sprintf("queued-cli/%s", version)
}

// SetToken updates the bearer token used for subsequent requests (set
// after a successful Authenticate call).
func (c *Client) SetToken(token string) {
	c.token = token
}

// Authenticate exchanges name/password for a bearer token and stores it
// on the client for subsequent calls.
func (c *Client) Authenticate(name, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(http.MethodPost, "/auth", map[string]string{"user": name, "password": password}, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// GetOption reads a single setting.
func (c *Client) GetOption(key string) (string, error) {
	var out struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.do(http.MethodGet, "/option/"+url.PathEscape(key), nil, &out); err != nil {
		return "", err
	}
	return out.Value, nil
}

// SetOption writes a single setting.
func (c *Client) SetOption(key, value string) error {
	return c.do(http.MethodPost, "/option/"+url.PathEscape(key), map[string]string{"value": value}, nil)
}

// AddPermission adds a permission bit to userID.
func (c *Client) AddPermission(userID int64, permission uint32) error {
	return c.do(http.MethodPost, fmt.Sprintf("/permissions/%d", userID), map[string]uint32{"permission": permission}, nil)
}

// RemovePermission clears a permission bit from userID.
func (c *Client) RemovePermission(userID int64, permission uint32) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/permissions/%d", userID), map[string]uint32{"permission": permission}, nil)
}

// AddPlugin loads a built-in plugin kind under name, with options.
func (c *Client) AddPlugin(name, kind string, opts map[string]string) error {
	return c.do(http.MethodPost, "/plugin/"+url.PathEscape(name), map[string]any{"kind": kind, "options": opts}, nil)
}

// RemovePlugin unloads a registered plugin.
func (c *Client) RemovePlugin(name string) error {
	return c.do(http.MethodDelete, "/plugin/"+url.PathEscape(name), nil, nil)
}

// ListPlugins lists every registered plugin's name.
func (c *Client) ListPlugins() ([]string, error) {
	var names []string
	if err := c.do(http.MethodGet, "/plugins", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// PluginInfo is a plugin's self-reported identity plus its current
// option map, as returned by GetPlugin.
type PluginInfo struct {
	Specification struct {
		Name        string `json:"Name"`
		Version     string `json:"Version"`
		Description string `json:"Description"`
	} `json:"specification"`
	Options map[string]string `json:"options"`
}

// GetPlugin fetches a registered plugin's specification and options.
func (c *Client) GetPlugin(name string) (PluginInfo, error) {
	var out PluginInfo
	if err := c.do(http.MethodGet, "/plugin/"+url.PathEscape(name), nil, &out); err != nil {
		return PluginInfo{}, err
	}
	return out, nil
}

// Report fetches the performance report for [from,to] (RFC3339 bounds).
func (c *Client) Report(from, to string) (json.RawMessage, error) {
	var out json.RawMessage
	q := url.Values{"from": {from}, "to": {to}}
	if err := c.do(http.MethodGet, "/reports?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status fetches the daemon's build-metadata hash-of-hashes.
func (c *Client) Status() (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddTask creates a new task from a JSON-encodable edit body.
func (c *Client) AddTask(body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(http.MethodPost, "/task", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(id int64) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(http.MethodGet, fmt.Sprintf("/task/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EditTask applies a partial update to a pending task.
func (c *Client) EditTask(id int64, body any) error {
	return c.do(http.MethodPost, fmt.Sprintf("/task/%d", id), body, nil)
}

// StartTask forces a task to start, bypassing admission.
func (c *Client) StartTask(id int64) error {
	return c.do(http.MethodPut, fmt.Sprintf("/task/%d", id), map[string]string{"action": "start"}, nil)
}

// StopTask stops a live task.
func (c *Client) StopTask(id int64) error {
	return c.do(http.MethodPut, fmt.Sprintf("/task/%d", id), map[string]string{"action": "stop"}, nil)
}

// ListTasks fetches a filtered task listing.
func (c *Client) ListTasks(user, from, to string) (json.RawMessage, error) {
	var out json.RawMessage
	q := url.Values{"user": {user}, "from": {from}, "to": {to}}
	if err := c.do(http.MethodGet, "/tasks?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser fetches a single user by name.
func (c *Client) GetUser(name string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(http.MethodGet, "/user/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddOrEditUser creates or updates a user by name, from a JSON-encodable body.
func (c *Client) AddOrEditUser(name string, body any) error {
	return c.do(http.MethodPost, "/user/"+url.PathEscape(name), body, nil)
}

// ListUsers fetches a filtered user listing.
func (c *Client) ListUsers(lastLogged string, permission uint32) (json.RawMessage, error) {
	var out json.RawMessage
	q := url.Values{"lastLogged": {lastLogged}, "permission": {fmt.Sprintf("%d", permission)}}
	if err := c.do(http.MethodGet, "/users?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do issues one request against path, JSON-encoding body (if non-nil)
// and decoding the envelope's data field into out (if non-nil).
func (c *Client) do(method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !env.OK {
		if env.Message != "" {
			return fmt.Errorf("%s: %s", env.Error, env.Message)
		}
		return fmt.Errorf("%s", env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding data: %w", err)
		}
	}
	return nil
}
