package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benvon/lingua-drome/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// FileHandle is an externally supplied file offered for import
type FileHandle interface {
	Name() string
	MediaType() string
	Open() (io.ReadCloser, error)
}

// ClassifyMediaType maps a media type to an asset kind. Only the image/ and video/
// prefixes are recognized.
func ClassifyMediaType(mediaType string) (models.MediaKind, bool) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case strings.HasPrefix(mt, "video"):
		return models.MediaKindVideo, true
	case strings.HasPrefix(mt, "image"):
		return models.MediaKindImage, true
	default:
		return "", false
	}
}

// MemoryFile is a file whose content is held in memory, such as an HTTP upload
type MemoryFile struct {
	name      string
	mediaType string
	data      []byte
}

// NewMemoryFile creates an in-memory file. When mediaType is empty or generic
// the type is sniffed from the content.
func NewMemoryFile(name, mediaType string, data []byte) *MemoryFile {
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = mimetype.Detect(data).String()
	}
	return &MemoryFile{name: name, mediaType: mediaType, data: data}
}

func (f *MemoryFile) Name() string      { return f.name }
func (f *MemoryFile) MediaType() string { return f.mediaType }
func (f *MemoryFile) Size() int         { return len(f.data) }

// Open returns a reader that also implements io.Seeker
func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return memoryReader{bytes.NewReader(f.data)}, nil
}

type memoryReader struct {
	*bytes.Reader
}

func (memoryReader) Close() error { return nil }

// DiskFile is a file on the local filesystem. Its content is read lazily on Open.
type DiskFile struct {
	path      string
	mediaType string
}

// NewDiskFile sniffs the media type of the file at path
func NewDiskFile(path string) (*DiskFile, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect media type of %s: %w", path, err)
	}
	return &DiskFile{path: path, mediaType: mt.String()}, nil
}

func (f *DiskFile) Name() string      { return filepath.Base(f.path) }
func (f *DiskFile) MediaType() string { return f.mediaType }
func (f *DiskFile) Path() string      { return f.path }

func (f *DiskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
