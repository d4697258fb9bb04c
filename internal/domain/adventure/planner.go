package adventure

import (
	"context"
	"time"

	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/domain/artifact"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

// Completer is the text capability the planner prompts.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

// ArtifactSaver stores rendered maps.
type ArtifactSaver interface {
	Save(ctx context.Context, req artifact.SaveRequest) (artifact.Record, error)
}

// Plan is a rendered trip map.
type Plan struct {
	ID        string            `json:"id"`
	MapName   string            `json:"-"`
	Locations []PointOfInterest `json:"locations"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// DefaultRadiusSlack widens the filter radius so points the model placed
// just past the edge survive.
const DefaultRadiusSlack = 1.25

type Planner struct {
	model     Completer
	artifacts ArtifactSaver
	logger    *utils.Logger
	slack     float64
}

func NewPlanner(model Completer, artifacts ArtifactSaver, logger *utils.Logger) *Planner {
	return &Planner{model: model, artifacts: artifacts, logger: logger, slack: DefaultRadiusSlack}
}

// WithRadiusSlack sets the filter multiplier. Values below 1 are ignored.
func (p *Planner) WithRadiusSlack(slack float64) *Planner {
	if slack >= 1 {
		p.slack = slack
	}
	return p
}

// Plan finds points around q, keeps those inside the slack-widened radius
// and saves the rendered map as a fresh artifact.
func (p *Planner) Plan(ctx context.Context, q Query) (plan *Plan, err error) {
	const op = "adventure.plan"
	if err := q.Center.Validate(); err != nil {
		return nil, err
	}
	if q.RadiusMiles <= 0 {
		return nil, platformerrors.New(platformerrors.KindInput, op, "radius must be positive")
	}

	ctx, end := observability.StartSpan(ctx, "trip", "plan")
	defer func() { end(err) }()

	raw, err := p.model.Complete(ctx, genai.Request{Prompt: BuildPrompt(q), JSON: true})
	if err != nil {
		return nil, err
	}

	parsed, err := ParseLocations(raw)
	if err != nil {
		p.logger.WarnTag("TRIP", "model output not decodable: %v", err)
		return nil, err
	}
	if parsed.MissingKey {
		p.logger.WarnTag("TRIP", "model output had no locations list")
	}
	if parsed.Skipped > 0 {
		p.logger.WarnTag("TRIP", "skipped %d locations with invalid coordinates", parsed.Skipped)
	}

	points := geo.WithinRadius(q.Center, q.RadiusKm()*p.slack, parsed.Points, PointOfInterest.Coordinate)
	if dropped := len(parsed.Points) - len(points); dropped > 0 {
		p.logger.InfoTag("TRIP", "dropped %d locations outside %.1f mi of %s", dropped, q.RadiusMiles, q.Center)
	}
	if len(points) == 0 {
		return nil, platformerrors.New(platformerrors.KindDomain, op, "No adventure locations found")
	}

	page, err := RenderMap(q, points)
	if err != nil {
		return nil, err
	}

	rec, err := p.artifacts.Save(ctx, artifact.SaveRequest{
		Kind:        "map",
		Extension:   "html",
		ContentType: "text/html; charset=utf-8",
		Content:     page,
		Metadata: map[string]any{
			"latitude":     q.Center.Latitude,
			"longitude":    q.Center.Longitude,
			"radius_miles": q.RadiusMiles,
			"locations":    len(points),
		},
	})
	if err != nil {
		return nil, err
	}

	p.logger.InfoTag("TRIP", "map %s: %d locations around %s", rec.Name, len(points), q.Center)
	return &Plan{ID: rec.ID, MapName: rec.Name, Locations: points, ExpiresAt: rec.ExpiresAt}, nil
}
