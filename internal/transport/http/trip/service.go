package trip

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"adventure-server-go/internal/domain/adventure"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	httptransport "adventure-server-go/internal/transport/http"
	"adventure-server-go/internal/utils"
)

const (
	msgMissingCoordinates = "Missing latitude or longitude"
	msgInvalidNumeric     = "Invalid numeric input for coordinates or radius"
)

// Planner turns a query into a saved map.
type Planner interface {
	Plan(ctx context.Context, q adventure.Query) (*adventure.Plan, error)
}

type Options struct {
	DefaultRadiusMiles float64
	MaxRadiusMiles     float64
	// MapPrefix is the public path maps are served under.
	MapPrefix string
}

type Service struct {
	planner Planner
	opts    Options
	logger  *utils.Logger
}

// PlanResponse is the plan_trip success body.
type PlanResponse struct {
	httptransport.APIResponse
	MapURL string `json:"map_url"`
}

func NewService(planner Planner, opts Options, logger *utils.Logger) (*Service, error) {
	if planner == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "trip.new", "planner is required")
	}
	if opts.DefaultRadiusMiles <= 0 {
		opts.DefaultRadiusMiles = 15
	}
	if opts.MapPrefix == "" {
		opts.MapPrefix = "/maps/"
	}
	return &Service{planner: planner, opts: opts, logger: logger}, nil
}

func (s *Service) Register(_ context.Context, router *gin.RouterGroup) {
	router.POST("/plan_trip", s.handlePlanTrip)
	s.logger.InfoTag("HTTP", "trip routes registered")
}

// handlePlanTrip
// @Summary Plan a trip
// @Description Finds adventure spots around a coordinate and renders them on a map.
// @Tags Trip
// @Accept json
// @Produce json
// @Param request body object true "latitude, longitude and optional radius_miles"
// @Success 200 {object} PlanResponse
// @Failure 400 {object} httptransport.APIResponse
// @Failure 500 {object} httptransport.APIResponse
// @Router /plan_trip [post]
func (s *Service) handlePlanTrip(c *gin.Context) {
	q, status, msg := s.parseQuery(httptransport.DecodeObject(c))
	if status != 0 {
		s.logger.WarnTag("TRIP", "rejected request: %s", msg)
		httptransport.RespondError(c, status, msg, nil)
		return
	}

	plan, err := s.planner.Plan(c.Request.Context(), q)
	if err != nil {
		s.logger.ErrorTag("TRIP", "planning failed around %s: %v", q.Center, err)
		httptransport.RespondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{
		APIResponse: httptransport.APIResponse{Success: true, Data: plan},
		MapURL:      s.opts.MapPrefix + plan.MapName,
	})
}

func (s *Service) parseQuery(body map[string]any) (adventure.Query, int, string) {
	if !httptransport.Present(body, "latitude") || !httptransport.Present(body, "longitude") {
		return adventure.Query{}, http.StatusBadRequest, msgMissingCoordinates
	}

	lat, okLat := httptransport.Number(body["latitude"])
	lon, okLon := httptransport.Number(body["longitude"])
	if !okLat || !okLon {
		return adventure.Query{}, http.StatusBadRequest, msgInvalidNumeric
	}

	radius := s.opts.DefaultRadiusMiles
	if httptransport.Present(body, "radius_miles") {
		r, ok := httptransport.Number(body["radius_miles"])
		if !ok || r <= 0 || (s.opts.MaxRadiusMiles > 0 && r > s.opts.MaxRadiusMiles) {
			return adventure.Query{}, http.StatusBadRequest, msgInvalidNumeric
		}
		radius = r
	}

	center := geo.Coordinate{Latitude: lat, Longitude: lon}
	if center.Validate() != nil {
		return adventure.Query{}, http.StatusBadRequest, msgInvalidNumeric
	}
	return adventure.Query{Center: center, RadiusMiles: radius}, 0, ""
}
