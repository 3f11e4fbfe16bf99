package trello

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Attachment partially describes a file attached to a card.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Bytes    int64  `json:"bytes"`
	MimeType string `json:"mimeType"`
}

// FileName is the name the attachment is saved under: its name with path separators replaced, so that it can't
// escape the board directory. Names that are empty or only dots fall back to the attachment id.
func (a *Attachment) FileName() string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, a.Name)
	if strings.Trim(name, ".") == "" {
		return a.ID
	}
	return name
}

// Download streams the resource at rawurl into w and returns the number of bytes copied. No credentials are
// sent: attachment URLs may point to hosts other than the API.
func (c *Client) Download(ctx context.Context, rawurl string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	r, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":    "download",
				"cause": err,
			}).Warning("Could not close response body")
		}
	}()
	if r.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: %d: %w", rawurl, r.StatusCode, ErrStatusCode)
	}
	n, err := io.Copy(w, r.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", rawurl, err)
	}
	return n, nil
}
