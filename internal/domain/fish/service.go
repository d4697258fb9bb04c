package fish

import (
	"context"
	"fmt"
	"strings"

	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

// Completer is the text capability.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

type Service struct {
	model  Completer
	logger *utils.Logger
}

func NewService(model Completer, logger *utils.Logger) *Service {
	return &Service{model: model, logger: logger}
}

// BuildPrompt asks for the top five species as a {"fish": [...]} object.
func BuildPrompt(at geo.Coordinate) string {
	return fmt.Sprintf(`Given the longitude %v and latitude %v, list the top 5 fish species commonly found in this area.
Respond ONLY with a valid JSON object of the form {"fish": ["Species One", "Species Two"]}.
If you have no data for this area, respond with {"fish": []}.
Do not include any text before or after the JSON object.`, at.Longitude, at.Latitude)
}

type structured struct {
	Fish *[]string `json:"fish"`
}

// List asks for the species around at. Structured output is used as is; prose
// falls back to ParseListing, whose parse error is returned unchanged.
func (s *Service) List(ctx context.Context, at geo.Coordinate) (listing *Listing, err error) {
	const op = "fish.list"
	if err := at.Validate(); err != nil {
		return nil, err
	}

	ctx, end := observability.StartSpan(ctx, "fish", "list")
	defer func() { end(err) }()

	raw, err := s.model.Complete(ctx, genai.Request{Prompt: BuildPrompt(at), JSON: true})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, platformerrors.New(platformerrors.KindUpstream, op, "Fish lookup produced no output")
	}

	var out structured
	if genai.DecodeJSON(raw, &out) == nil && out.Fish != nil {
		names := make([]string, 0, len(*out.Fish))
		for _, name := range *out.Fish {
			if name = utils.CleanText(name); name != "" {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return &Listing{Fish: names, Message: NoDataMessage}, nil
		}
		s.logger.InfoTag("FISH", "%d species near %s", len(names), at)
		return &Listing{Fish: names}, nil
	}

	listing, err = ParseListing(raw)
	if err != nil {
		s.logger.WarnTag("FISH", "could not parse fish list near %s", at)
		return nil, err
	}
	return listing, nil
}
