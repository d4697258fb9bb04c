package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"adventure-server-go/internal/platform/config"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/utils"
)

// Pipeline reads an upload under a size bound and validates it as an image.
type Pipeline struct {
	validator *SecurityValidator
	logger    *utils.Logger
	security  *config.SecurityConfig

	processed atomic.Int64
	failed    atomic.Int64
	incidents atomic.Int64
}

// Options configures the pipeline behaviour.
type Options struct {
	Security *config.SecurityConfig
	Logger   *utils.Logger
}

// Input describes a streaming image payload.
type Input struct {
	Reader io.Reader
	// Filename is used only to derive the declared format from its extension.
	Filename string
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Security == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "image.new_pipeline", "security config is required")
	}

	return &Pipeline{
		validator: NewSecurityValidator(opts.Security, opts.Logger),
		logger:    opts.Logger,
		security:  opts.Security,
	}, nil
}

// Process reads at most MaxFileSize bytes and validates them.
func (p *Pipeline) Process(ctx context.Context, input Input) (*Photo, error) {
	if input.Reader == nil {
		return nil, platformerrors.New(platformerrors.KindInput, "image.process", "image reader is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.processed.Add(1)

	maxSize := p.security.MaxFileSize
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}

	limited := &io.LimitedReader{R: input.Reader, N: maxSize + 1}
	buf := bytes.NewBuffer(make([]byte, 0, 32*1024))
	if _, err := io.Copy(buf, limited); err != nil {
		p.failed.Add(1)
		return nil, platformerrors.Wrap(platformerrors.KindInput, "image.process", "failed to read image", err)
	}
	if limited.N <= 0 {
		p.failed.Add(1)
		return nil, platformerrors.New(platformerrors.KindInput, "image.process",
			fmt.Sprintf("image exceeds maximum size of %d bytes", maxSize))
	}

	validation := p.validator.ValidateBytes(buf.Bytes(), DeclaredFormat(input.Filename))
	if !validation.IsValid {
		p.failed.Add(1)
		if validation.SecurityRisk == "suspicious content" {
			p.incidents.Add(1)
		}
		msg := "image validation failed"
		if validation.Error != nil {
			msg = validation.Error.Error()
		}
		return nil, platformerrors.New(platformerrors.KindInput, "image.process", msg)
	}

	return &Photo{
		Bytes:      buf.Bytes(),
		Format:     validation.Format,
		Validation: validation,
	}, nil
}

// Metrics returns a snapshot of the pipeline counters.
func (p *Pipeline) Metrics() Metrics {
	return Metrics{
		TotalProcessed:    p.processed.Load(),
		FailedValidations: p.failed.Load(),
		SecurityIncidents: p.incidents.Load(),
	}
}

// DeclaredFormat derives a format name from a filename extension.
func DeclaredFormat(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}
