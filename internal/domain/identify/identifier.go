package identify

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/domain/image"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

// Result is the model's identification record.
type Result struct {
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	PlacesFound    string `json:"places_found"`
	FunFact        string `json:"fun_fact"`
	Error          string `json:"error,omitempty"`
}

// Completer is the vision capability.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

// PhotoLoader reads and validates an image.
type PhotoLoader interface {
	Process(ctx context.Context, input image.Input) (*image.Photo, error)
}

type Identifier struct {
	model  Completer
	photos PhotoLoader
	logger *utils.Logger
}

func NewIdentifier(model Completer, photos PhotoLoader, logger *utils.Logger) *Identifier {
	return &Identifier{model: model, photos: photos, logger: logger}
}

// Identify validates the photo at path and asks the vision model about it.
func (i *Identifier) Identify(ctx context.Context, kind Kind, path string) (result *Result, err error) {
	const op = "identify.identify"

	ctx, end := observability.StartSpan(ctx, "identify", string(kind))
	defer func() { end(err) }()

	f, err := os.Open(path)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to open uploaded image", err)
	}
	defer f.Close()

	photo, err := i.photos.Process(ctx, image.Input{Reader: f, Filename: filepath.Base(path)})
	if err != nil {
		return nil, err
	}

	raw, err := i.model.Complete(ctx, genai.Request{
		Prompt:   kind.Prompt(),
		ImageURL: photo.DataURI(),
		JSON:     true,
	})
	if err != nil {
		return nil, err
	}

	result, err = ParseResult(raw)
	if err != nil {
		i.logger.WarnTag("IDENTIFY", "%s identification failed: %v", kind, err)
		return nil, err
	}
	i.logger.InfoTag("IDENTIFY", "%s identified as %s (%s)", kind, result.CommonName, result.ScientificName)
	return result, nil
}

// ParseResult decodes model output. Non-JSON output is a parse error carrying
// the raw text; a non-empty "error" field is a vision error.
func ParseResult(raw string) (*Result, error) {
	const op = "identify.parse_result"
	var res Result
	if err := genai.DecodeJSON(raw, &res); err != nil {
		return nil, platformerrors.New(platformerrors.KindParse, op, "Identification output was not valid JSON").WithDetails(raw)
	}
	if msg := strings.TrimSpace(res.Error); msg != "" {
		return nil, platformerrors.New(platformerrors.KindVision, op, "Identification failed: "+msg)
	}
	return &res, nil
}
