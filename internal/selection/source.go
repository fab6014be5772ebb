package selection

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"tracker-studio/internal/model"
)

// Media types the picker offers. Anything else can still be selected.
var acceptedMediaTypes = map[string]bool{
	"video/mp4":       true,
	"video/avi":       true,
	"video/x-msvideo": true,
	"video/quicktime": true,
}

// AcceptedExtensions is the picker's file filter.
var AcceptedExtensions = []string{".mp4", ".avi", ".mov"}

const sniffLen = 261

type FileSource struct {
	Path string
}

func (f FileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open selection %s: %w", f.Path, err)
	}
	return file, nil
}

type BytesSource []byte

func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// FromPath builds a candidate selection for a file on disk.
func FromPath(path string) (model.FileSelection, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return model.FileSelection{}, errors.New("no file path given")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.FileSelection{}, fmt.Errorf("resolve path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return model.FileSelection{}, fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return model.FileSelection{}, fmt.Errorf("%s is a directory", abs)
	}

	head, err := readHead(abs)
	if err != nil {
		return model.FileSelection{}, err
	}
	return model.FileSelection{
		Name:      filepath.Base(abs),
		MediaType: DetectMediaType(filepath.Base(abs), head),
		Size:      info.Size(),
		Path:      abs,
		Source:    FileSource{Path: abs},
	}, nil
}

// FromBytes builds an in-memory selection.
func FromBytes(name string, data []byte) model.FileSelection {
	return model.FileSelection{
		Name:      name,
		MediaType: DetectMediaType(name, data),
		Size:      int64(len(data)),
		Source:    BytesSource(data),
	}
}

// DetectMediaType sniffs magic bytes first and falls back to the extension.
func DetectMediaType(name string, head []byte) string {
	if len(head) > 0 {
		if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
			return kind.MIME.Value
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Accepted reports whether the media type is one the picker offers.
func Accepted(mediaType string) bool {
	base, _, _ := strings.Cut(mediaType, ";")
	return acceptedMediaTypes[strings.TrimSpace(strings.ToLower(base))]
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf[:n], nil
}
