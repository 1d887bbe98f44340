package intake

import (
	"fmt"
	"io"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// FilePayload is a resume file on a billy filesystem.
// Name and size are captured at intake; bytes are read only on Open.
type FilePayload struct {
	fs   billy.Filesystem
	path string
	size int64
}

// NewFilePayload stats p on fs and returns a payload for it.
func NewFilePayload(fs billy.Filesystem, p string) (*FilePayload, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return &FilePayload{fs: fs, path: p, size: info.Size()}, nil
}

// Name returns the base filename sent to the ingestion API.
func (p *FilePayload) Name() string {
	return path.Base(p.path)
}

// Size returns the file size at intake time.
func (p *FilePayload) Size() int64 {
	return p.size
}

// Path returns the path on the backing filesystem.
func (p *FilePayload) Path() string {
	return p.path
}

// Open opens the file for reading.
func (p *FilePayload) Open() (io.ReadCloser, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.path, err)
	}
	return f, nil
}

// HostFS returns the host filesystem rooted at "/".
// Callers pass absolute, slash-separated paths.
func HostFS() billy.Filesystem {
	return osfs.New("/")
}
