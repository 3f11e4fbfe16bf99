package trello

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// pull makes an authenticated GET call to the given API path and returns the raw response body. Only a 200
// response is considered successful; there are no retries. The client timeout, if any, covers the whole call.
func (c *Client) pull(ctx context.Context, op, pathname string, params url.Values) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	query := make(url.Values)
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", c.key)
	query.Set("token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+pathname+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	r, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: GET %s: %w", op, pathname, stripURL(err))
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":    op,
				"cause": err,
			}).Warning("Could not close response body")
		}
	}()
	switch r.StatusCode {
	case http.StatusOK:
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%s, read body: %w", op, err)
		}
		c.wireLog(op, b)
		return b, nil
	default:
		var responseText string
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			responseText = fmt.Sprintf("unknown, because of error: %v", err)
		} else {
			responseText = string(b)
		}
		log.WithFields(log.Fields{
			"op":   op,
			"path": pathname,
			"code": r.StatusCode,
			"text": responseText,
		}).Error("Unhandled response")
		return nil, fmt.Errorf("%s: %d: %w", op, r.StatusCode, ErrStatusCode)
	}
}

// stripURL drops the request URL from transport errors, since it carries the key and token.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
