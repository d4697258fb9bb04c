package astronomy

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"adventure-server-go/internal/core/providers/rest"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	"adventure-server-go/internal/utils"
)

const DefaultChartURL = "https://api.astronomyapi.com/api/v2/studio/star-chart"

// Chart is a rendered star chart.
type Chart struct {
	ImageURL string `json:"image_url"`
}

type ChartConfig struct {
	URL       string
	AppID     string
	AppSecret string
	Style     string
}

// ChartClient calls the AstronomyAPI star-chart endpoint.
type ChartClient struct {
	client *rest.Client
	cfg    ChartConfig
	logger *utils.Logger
}

func NewChartClient(client *rest.Client, cfg ChartConfig, logger *utils.Logger) *ChartClient {
	if cfg.URL == "" {
		cfg.URL = DefaultChartURL
	}
	if cfg.Style == "" {
		cfg.Style = "default"
	}
	return &ChartClient{client: client, cfg: cfg, logger: logger}
}

// Configured reports whether both credentials are present.
func (c *ChartClient) Configured() bool {
	return c != nil && c.cfg.AppID != "" && c.cfg.AppSecret != ""
}

type observer struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Date      string  `json:"date"`
}

type equatorial struct {
	RightAscension float64 `json:"rightAscension"`
	Declination    float64 `json:"declination"`
}

type chartRequest struct {
	Style    string   `json:"style"`
	Observer observer `json:"observer"`
	View     struct {
		Type       string `json:"type"`
		Parameters struct {
			Position struct {
				Equatorial equatorial `json:"equatorial"`
			} `json:"position"`
			Zoom int `json:"zoom"`
		} `json:"parameters"`
	} `json:"view"`
}

type chartResponse struct {
	Data *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

func (c *ChartClient) newRequest(at geo.Coordinate, date time.Time) chartRequest {
	var req chartRequest
	req.Style = c.cfg.Style
	req.Observer = observer{Latitude: at.Latitude, Longitude: at.Longitude, Date: date.Format("2006-01-02")}
	req.View.Type = "area"
	// centred roughly on the observer's latitude
	req.View.Parameters.Position.Equatorial = equatorial{RightAscension: 1, Declination: at.Latitude}
	req.View.Parameters.Zoom = 2
	return req
}

func (c *ChartClient) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.cfg.AppID+":"+c.cfg.AppSecret))
}

// StarChart renders the sky over at on date.
func (c *ChartClient) StarChart(ctx context.Context, at geo.Coordinate, date time.Time) (*Chart, error) {
	const op = "astronomy.star_chart"
	if !c.Configured() {
		return nil, errNotConfigured()
	}

	header := http.Header{}
	header.Set("Authorization", c.authorization())

	resp, err := c.client.PostJSON(ctx, c.cfg.URL, header, c.newRequest(at, date))
	if err != nil {
		c.logger.ErrorTag("ASTRO", "star chart request failed: %v", err)
		if rest.IsTimeout(err) {
			return nil, platformerrors.New(platformerrors.KindUpstream, op, "Timeout connecting to Astronomy API.")
		}
		return nil, platformerrors.New(platformerrors.KindUpstream, op, "Failed to generate star map.").WithDetails(err.Error())
	}
	if !resp.OK() {
		c.logger.ErrorTag("ASTRO", "star chart returned %d: %s", resp.StatusCode, string(resp.Body))
		return nil, platformerrors.New(platformerrors.KindUpstream, op, "Failed to generate star map.").WithDetails(string(resp.Body))
	}

	var body chartResponse
	if err := resp.DecodeJSON(&body); err != nil || body.Data == nil || body.Data.ImageURL == "" {
		var decoded any
		if resp.DecodeJSON(&decoded) != nil {
			decoded = string(resp.Body)
		}
		return nil, platformerrors.New(platformerrors.KindUpstream, op, "Astronomy API response format unexpected.").WithDetails(decoded)
	}
	return &Chart{ImageURL: body.Data.ImageURL}, nil
}

func errNotConfigured() error {
	return platformerrors.New(platformerrors.KindConfig, "astronomy.star_chart",
		"Astronomy API credentials (APP_ID, APP_SECRET) not configured on server.")
}
