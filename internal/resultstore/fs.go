package resultstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// WriteStream copies r into path through a temp file and rename, so readers
// never observe a partial file.
func WriteStream(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tstudio-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return n, fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return n, fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return n, fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return n, nil
}

func WriteBytes(path string, data []byte) error {
	_, err := WriteStream(path, bytes.NewReader(data))
	return err
}
