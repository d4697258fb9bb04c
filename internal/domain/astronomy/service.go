package astronomy

import (
	"context"
	"net"
	"time"

	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

// Locator resolves a public IP address.
type Locator interface {
	Configured() bool
	Locate(ctx context.Context, ip string) (*Location, error)
}

// Charter renders star charts.
type Charter interface {
	Configured() bool
	StarChart(ctx context.Context, at geo.Coordinate, date time.Time) (*Chart, error)
}

type ServiceOptions struct {
	Locator  Locator
	Charts   Charter
	Fallback geo.Coordinate
	Logger   *utils.Logger
}

type Service struct {
	locator  Locator
	charts   Charter
	fallback geo.Coordinate
	logger   *utils.Logger
	now      func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		locator:  opts.Locator,
		charts:   opts.Charts,
		fallback: opts.Fallback,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Configured reports whether star charts can be requested at all.
func (s *Service) Configured() bool {
	return s.charts != nil && s.charts.Configured()
}

// ChartFor renders today's sky over the caller at ip.
func (s *Service) ChartFor(ctx context.Context, ip string) (chart *Chart, err error) {
	if !s.Configured() {
		return nil, errNotConfigured()
	}

	ctx, end := observability.StartSpan(ctx, "astronomy", "chart")
	defer func() { end(err) }()

	at, err := s.Resolve(ctx, ip)
	if err != nil {
		return nil, err
	}
	return s.charts.StarChart(ctx, at, s.now())
}

// Resolve turns ip into a coordinate. Local addresses, or a missing lookup
// key, give the fallback without a lookup.
func (s *Service) Resolve(ctx context.Context, ip string) (geo.Coordinate, error) {
	if net.ParseIP(ip) == nil {
		s.logger.WarnTag("ASTRO", "client address %q is not an IP, using fallback location", ip)
		return s.fallback, nil
	}
	if IsLocal(ip) || s.locator == nil || !s.locator.Configured() {
		s.logger.DebugTag("ASTRO", "using fallback location for %q", ip)
		return s.fallback, nil
	}

	loc, err := s.locator.Locate(ctx, ip)
	if err != nil {
		s.logger.WarnTag("ASTRO", "ip lookup for %s failed: %v", ip, err)
		return geo.Coordinate{}, platformerrors.New(platformerrors.KindUpstream, "astronomy.resolve", "Could not determine location from IP address.").
			WithDetails(platformerrors.DetailsOf(err))
	}
	s.logger.InfoTag("ASTRO", "located %s at %s (%s, %s)", ip, loc.Coordinate, loc.City, loc.Country)
	return loc.Coordinate, nil
}
