// Package upload spools request uploads to uniquely named files that are
// removed once the request is done with them.
package upload

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"adventure-server-go/internal/domain/eventbus"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/utils"
)

type Spool struct {
	dir     string
	maxSize int64
	bus     eventbus.Publisher
	logger  *utils.Logger
}

type Options struct {
	Dir     string
	MaxSize int64
	Bus     eventbus.Publisher
	Logger  *utils.Logger
}

func NewSpool(opts Options) (*Spool, error) {
	const op = "upload.new_spool"
	if opts.Dir == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, op, "upload directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to create upload directory", err)
	}
	return &Spool{dir: opts.Dir, maxSize: opts.MaxSize, bus: opts.Bus, logger: opts.Logger}, nil
}

// File is one spooled upload.
type File struct {
	Path string
	Size int64
	kind string
	s    *Spool
}

// Dir is the spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Write copies r into a new file named <uuid><ext>, ext taken from the
// client filename. Files over the size limit are rejected and removed.
func (s *Spool) Write(r io.Reader, filename, kind string) (*File, error) {
	const op = "upload.write"

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to create upload file", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	file := &File{Path: path, Size: n, kind: kind, s: s}

	switch {
	case err != nil:
		file.remove()
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to save upload", err)
	case closeErr != nil:
		file.remove()
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to save upload", closeErr)
	case s.maxSize > 0 && n > s.maxSize:
		file.remove()
		return nil, platformerrors.New(platformerrors.KindInput, op, "uploaded file is too large")
	}

	s.publish(eventbus.EventUploadSpooled, file)
	return file, nil
}

// Remove deletes the spooled file. Failures are logged only.
func (f *File) Remove() {
	if f == nil {
		return
	}
	if f.remove() {
		f.s.publish(eventbus.EventUploadRemoved, f)
	}
}

func (f *File) remove() bool {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		f.s.logger.WarnTag("UPLOAD", "failed to remove %s: %v", f.Path, err)
		return false
	}
	return true
}

func (s *Spool) publish(topic string, f *File) {
	if s.bus == nil {
		return
	}
	s.bus.PublishAsync(topic, eventbus.UploadEventData{Path: f.Path, Kind: f.kind, Size: f.Size})
}
