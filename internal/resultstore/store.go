package resultstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

var ErrReleased = errors.New("render result has been released")

// Store owns a per-process cache directory holding render results.
type Store struct {
	dir string
}

// Open creates a fresh session directory under cacheRoot.
func Open(cacheRoot string) (*Store, error) {
	root := strings.TrimSpace(cacheRoot)
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "session-"+uuid.NewString())
	if err := Mkdir(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Spool copies r into a new cache file and returns its handle.
func (s *Store) Spool(r io.Reader) (*Handle, error) {
	base := filepath.Join(s.dir, "result-"+uuid.NewString())
	path := base + ".bin"
	n, err := WriteStream(path, r)
	if err != nil {
		return nil, err
	}
	mediaType, ext := sniffFile(path)
	// players pick a decoder from the extension
	if ext != "" {
		if err := os.Rename(path, base+"."+ext); err == nil {
			path = base + "." + ext
		}
	}
	return &Handle{
		path:      path,
		size:      n,
		mediaType: mediaType,
	}, nil
}

// Close removes the session directory and everything still in it.
func (s *Store) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove cache directory %s: %w", s.dir, err)
	}
	return nil
}

// Handle is an opaque reference to one render result on disk.
type Handle struct {
	mu        sync.Mutex
	path      string
	size      int64
	mediaType string
	released  bool
}

func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) Size() int64 {
	return h.size
}

func (h *Handle) MediaType() string {
	return h.mediaType
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

func (h *Handle) Open() (io.ReadCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}
	f, err := os.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("open result %s: %w", h.path, err)
	}
	return f, nil
}

func (h *Handle) Bytes() ([]byte, error) {
	rc, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", h.path, err)
	}
	return data, nil
}

// Release deletes the backing file. Calling it more than once is a no-op.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release result %s: %w", h.path, err)
	}
	return nil
}

// SaveAs writes the result to dest atomically while holding the download
// directory lock. It returns the absolute destination path.
func (h *Handle) SaveAs(dest string) (string, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", fmt.Errorf("download path is required")
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("resolve download path %s: %w", dest, err)
	}

	lock, err := AcquireTargetLock(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = lock.Release()
	}()

	rc, err := h.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	if _, err := WriteStream(abs, rc); err != nil {
		return "", err
	}
	return abs, nil
}

func sniffFile(path string) (string, string) {
	const unknown = "application/octet-stream"
	f, err := os.Open(path)
	if err != nil {
		return unknown, ""
	}
	defer f.Close()
	head := make([]byte, 261)
	n, _ := io.ReadFull(f, head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return unknown, ""
	}
	return kind.MIME.Value, kind.Extension
}
