package trello

import (
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrStatusCode is returned in case the response from the API contains a status code that the client can't handle.
var ErrStatusCode = errors.New("unhandled status code")

// ClientOption configures a Client built with NewClient.
type ClientOption func(*Client) error

// WithEndpoint is a client option to set the API base URL when building a client with NewClient, e.g., to point
// the client to a mock server in tests.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) error {
		c.endpoint = strings.TrimRight(endpoint, "/")
		return nil
	}
}

// WithHTTPClient replaces http.DefaultClient for all requests, including attachment downloads.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.hc = hc
		return nil
	}
}

// WithTimeout bounds every API call, including reading its response. Attachment downloads are not bounded, since
// their duration depends on the file size. A zero duration means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < 0 {
			return errors.New("negative timeout")
		}
		c.timeout = d
		return nil
	}
}

// WithWireLog is a client option to be passed to NewClient in order to log all API responses to the specified
// log file. Useful for debugging the client itself, shouldn't be needed in normal operation. Attachment bodies are
// not logged.
func WithWireLog(pathname string) ClientOption {
	return func(c *Client) error {
		f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err == nil {
			c.wlog = f
		}
		return err
	}
}

// Client is a read-only Trello REST API client. It only knows the calls needed to back up a member's boards. For
// more documentation on the API see https://developer.atlassian.com/cloud/trello/rest/.
type Client struct {
	endpoint string

	// The API key and the member's token authorize every API call. They are sent as query parameters.
	key   string
	token string

	hc      *http.Client
	timeout time.Duration

	// If non-nil, log all responses to this file, one per line, in JSON format. Board details are fetched
	// concurrently, hence the mutex.
	wmu  sync.Mutex
	wlog io.Writer
}

// NewClient creates a new client authenticated and authorized by the given API key and token.
func NewClient(key, token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		endpoint: "https://api.trello.com",
		key:      key,
		token:    token,
		hc:       http.DefaultClient,
		wlog:     ioutil.Discard,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close releases the wire log, if any.
func (c *Client) Close() error {
	if closer, ok := c.wlog.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Client) wireLog(op string, b []byte) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, _ = c.wlog.Write([]byte(`{"type": "response", "op": "` + op + `", "response": `))
	_, _ = c.wlog.Write(b)
	_, _ = c.wlog.Write([]byte("}\n"))
}
