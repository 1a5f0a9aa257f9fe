package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PreviewStore creates and revokes transient local preview references for
// files selected in the composer. Create returns an opaque URL-like handle;
// Revoke releases it. The engine guarantees each handle is revoked at most
// once, so implementations may treat Revoke of an unknown handle as an error.
type PreviewStore interface {
	Create(name string, r io.Reader) (string, error)
	Revoke(url string) error
}

// filePreviewStore keeps previews as files in a session-scoped directory.
type filePreviewStore struct {
	mu  sync.Mutex
	dir string
}

// NewFilePreviewStore returns a PreviewStore backed by dir. An empty dir
// falls back to a fresh directory under the OS temp root.
func NewFilePreviewStore(dir string) (PreviewStore, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", "bananapics-previews-")
		if err != nil {
			return nil, err
		}
		dir = d
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &filePreviewStore{dir: dir}, nil
}

func (s *filePreviewStore) Create(name string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Keep the extension for downstream content-type guessing, drop the rest
	// of the caller-supplied name.
	ext := strings.ToLower(filepath.Ext(name))
	p := filepath.Join(s.dir, uuid.NewString()+ext)
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(p)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", err
	}
	return "file://" + p, nil
}

func (s *filePreviewStore) Revoke(url string) error {
	p, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return fmt.Errorf("not a local preview: %s", url)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.Remove(p)
}
