package trello

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Directories are owner-only, files owner read/write: a backup holds private data.
const (
	dirMode  os.FileMode = 0700
	fileMode os.FileMode = 0600
)

// Downloader streams a remote resource into w. *Client implements it.
type Downloader interface {
	Download(ctx context.Context, rawurl string, w io.Writer) (int64, error)
}

// Store writes backup files below its root directory. Repeated writes overwrite.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

// EnsureDir creates the directory named by joining elem to the root (or the root itself) and returns its path.
// A directory that already exists is not an error.
func (s *Store) EnsureDir(elem ...string) (string, error) {
	dir := filepath.Join(append([]string{s.root}, elem...)...)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	return dir, nil
}

// WriteJSON serializes v as compact JSON into dir/name.json. Raw messages are compacted, not re-encoded, so key
// order and values are those of the API response. HTML characters are not escaped.
func (s *Store) WriteJSON(dir, name string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s, marshal: %w", name, err)
	}
	pathname := filepath.Join(dir, name+".json")
	if err := ioutil.WriteFile(pathname, bytes.TrimSuffix(buf.Bytes(), []byte("\n")), fileMode); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Download saves the resource at rawurl as dir/filename. On failure the partially written file is removed.
func (s *Store) Download(ctx context.Context, d Downloader, dir, filename, rawurl string) (n int64, err error) {
	pathname := filepath.Join(dir, filename)
	f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("save %s: %w", filename, cerr)
		}
		if err != nil {
			if rerr := os.Remove(pathname); rerr != nil {
				log.WithFields(log.Fields{
					"path":  pathname,
					"cause": rerr,
				}).Warning("Could not remove partial download")
			}
		}
	}()
	return d.Download(ctx, rawurl, f)
}
