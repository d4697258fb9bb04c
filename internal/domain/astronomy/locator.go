// Package astronomy renders a star chart for the caller's approximate
// location, resolved from their IP address.
package astronomy

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"adventure-server-go/internal/core/providers/rest"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/utils"
)

// Location is an IP lookup result.
type Location struct {
	geo.Coordinate
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// ClientIP returns the first X-Forwarded-For entry, else the host part of
// the remote address.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(remoteAddr)
}

// IsLocal reports addresses that cannot be geolocated: loopback, unspecified
// or unparsable.
func IsLocal(ip string) bool {
	addr := net.ParseIP(ip)
	return addr == nil || addr.IsLoopback() || addr.IsUnspecified()
}

type ipinfoResponse struct {
	Loc      string `json:"loc"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

// IPInfoLocator resolves addresses through ipinfo.io. Concurrent lookups of
// the same address share one request.
type IPInfoLocator struct {
	client  *rest.Client
	baseURL string
	token   string
	logger  *utils.Logger
	group   singleflight.Group
}

func NewIPInfoLocator(client *rest.Client, baseURL, token string, logger *utils.Logger) *IPInfoLocator {
	if baseURL == "" {
		baseURL = "https://ipinfo.io"
	}
	return &IPInfoLocator{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

// Configured reports whether a lookup token is present.
func (l *IPInfoLocator) Configured() bool {
	return l != nil && l.token != ""
}

// Locate joins any lookup already in flight for ip. The shared lookup is
// detached from the caller that started it and bounded by the client
// timeout; each caller stops waiting when its own context ends.
func (l *IPInfoLocator) Locate(ctx context.Context, ip string) (*Location, error) {
	ch := l.group.DoChan(ip, func() (any, error) {
		return l.lookup(context.WithoutCancel(ctx), ip)
	})

	select {
	case <-ctx.Done():
		return nil, platformerrors.Wrap(platformerrors.KindUpstream, "astronomy.locate", "ip lookup abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.logger.DebugTag("ASTRO", "shared ip lookup for %s", ip)
		}
		loc := *res.Val.(*Location)
		return &loc, nil
	}
}

func (l *IPInfoLocator) lookup(ctx context.Context, ip string) (*Location, error) {
	const op = "astronomy.locate"
	endpoint := l.baseURL + "/" + url.PathEscape(ip) + "/json?token=" + url.QueryEscape(l.token)

	resp, err := l.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, platformerrors.New(platformerrors.KindUpstream, op, "ip lookup returned status "+strconv.Itoa(resp.StatusCode)).
			WithDetails(string(resp.Body))
	}

	var body ipinfoResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindParse, op, "ip lookup response was not JSON", err)
	}
	coord, err := parseLoc(body.Loc)
	if err != nil {
		l.logger.WarnTag("ASTRO", "no usable loc for %s: %q", ip, body.Loc)
		return nil, err
	}

	return &Location{
		Coordinate: coord,
		City:       body.City,
		Region:     body.Region,
		Country:    body.Country,
		Timezone:   body.Timezone,
	}, nil
}

// parseLoc reads ipinfo's "lat,lon" field.
func parseLoc(loc string) (geo.Coordinate, error) {
	const op = "astronomy.parse_loc"
	latText, lonText, ok := strings.Cut(loc, ",")
	if !ok {
		return geo.Coordinate{}, platformerrors.New(platformerrors.KindParse, op, "missing loc field")
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if errLat != nil || errLon != nil {
		return geo.Coordinate{}, platformerrors.New(platformerrors.KindParse, op, "malformed loc field: "+loc)
	}
	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}
