// Package rpc talks to the router's ubus JSON-RPC endpoint (uhttpd-mod-ubus)
// and exposes the NPU calls as an engine.Fetcher.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// NullSession is the anonymous ubus session id used for login.
const NullSession = "00000000000000000000000000000000"

// ubus status codes, see libubus.h.
const (
	StatusOK               = 0
	StatusInvalidCommand   = 1
	StatusInvalidArgument  = 2
	StatusMethodNotFound   = 3
	StatusNotFound         = 4
	StatusNoData           = 5
	StatusPermissionDenied = 6
	StatusTimeout          = 7
	StatusNotSupported     = 8
	StatusUnknownError     = 9
	StatusConnectionFailed = 10
)

var statusText = map[int]string{
	StatusInvalidCommand:   "invalid command",
	StatusInvalidArgument:  "invalid argument",
	StatusMethodNotFound:   "method not found",
	StatusNotFound:         "not found",
	StatusNoData:           "no data",
	StatusPermissionDenied: "permission denied",
	StatusTimeout:          "timeout",
	StatusNotSupported:     "not supported",
	StatusUnknownError:     "unknown error",
	StatusConnectionFailed: "connection failed",
}

// StatusError is a non-zero ubus status returned by a call.
type StatusError struct {
	Object string
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	text, ok := statusText[e.Code]
	if !ok {
		text = fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("ubus %s.%s: %s", e.Object, e.Method, text)
}

// RemoteError is a JSON-RPC level error object.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

var ErrNoSession = errors.New("login returned no ubus_rpc_session")

// Client is a ubus-over-HTTP client. With empty credentials every call runs
// in the anonymous session.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client

	nextID atomic.Uint64

	mu      sync.Mutex
	session string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithCredentials logs in with rpcd credentials before the first call.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	ID     uint64            `json:"id"`
	Result []json.RawMessage `json:"result"`
	Error  *RemoteError      `json:"error"`
}

// Login opens a session with the configured credentials.
func (c *Client) Login(ctx context.Context) error {
	var out struct {
		Session string `json:"ubus_rpc_session"`
	}
	args := map[string]any{"username": c.username, "password": c.password}
	if err := c.call(ctx, NullSession, "session", "login", args, &out); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if out.Session == "" {
		return ErrNoSession
	}

	c.mu.Lock()
	c.session = out.Session
	c.mu.Unlock()
	return nil
}

func (c *Client) currentSession(ctx context.Context) (string, error) {
	if c.username == "" {
		return NullSession, nil
	}
	c.mu.Lock()
	sid := c.session
	c.mu.Unlock()
	if sid != "" {
		return sid, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, nil
}

// Call invokes object.method with args and decodes the reply into out.
// An expired session is renewed once.
func (c *Client) Call(ctx context.Context, object, method string, args any, out any) error {
	sid, err := c.currentSession(ctx)
	if err != nil {
		return err
	}
	err = c.call(ctx, sid, object, method, args, out)

	var se *StatusError
	if c.username != "" && errors.As(err, &se) && se.Code == StatusPermissionDenied {
		c.mu.Lock()
		if c.session == sid {
			c.session = ""
		}
		c.mu.Unlock()
		if sid, err = c.currentSession(ctx); err != nil {
			return err
		}
		err = c.call(ctx, sid, object, method, args, out)
	}
	return err
}

func (c *Client) call(ctx context.Context, sid, object, method string, args any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "call",
		Params:  []any{sid, object, method, args},
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ubus %s.%s: %w", object, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("ubus %s.%s: http status %s", object, method, resp.Status)
	}

	var rr response
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("ubus %s.%s: decoding reply: %w", object, method, err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if len(rr.Result) == 0 {
		return fmt.Errorf("ubus %s.%s: empty result", object, method)
	}

	var code int
	if err := json.Unmarshal(rr.Result[0], &code); err != nil {
		return fmt.Errorf("ubus %s.%s: bad status: %w", object, method, err)
	}
	if code != StatusOK {
		return &StatusError{Object: object, Method: method, Code: code}
	}
	if out == nil || len(rr.Result) < 2 {
		return nil
	}
	if err := json.Unmarshal(rr.Result[1], out); err != nil {
		return fmt.Errorf("ubus %s.%s: decoding data: %w", object, method, err)
	}
	return nil
}
