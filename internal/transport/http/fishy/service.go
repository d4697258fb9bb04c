package fishy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"adventure-server-go/internal/domain/fish"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
	httptransport "adventure-server-go/internal/transport/http"
	"adventure-server-go/internal/utils"
)

// Lister returns the species found around a coordinate.
type Lister interface {
	List(ctx context.Context, at geo.Coordinate) (*fish.Listing, error)
}

type Service struct {
	lister   Lister
	fallback geo.Coordinate
	logger   *utils.Logger
}

func NewService(lister Lister, fallback geo.Coordinate, logger *utils.Logger) (*Service, error) {
	if lister == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "fishy.new", "fish lister is required")
	}
	return &Service{lister: lister, fallback: fallback, logger: logger}, nil
}

func (s *Service) Register(_ context.Context, router *gin.RouterGroup) {
	router.POST("/fishy", s.handleFishy)
	s.logger.InfoTag("HTTP", "fish routes registered")
}

// handleFishy
// @Summary Local fish species
// @Description Lists fish commonly found near a coordinate, or near the default location when none is given.
// @Tags Fish
// @Accept json
// @Produce json
// @Param request body object false "optional latitude and longitude"
// @Success 200 {object} httptransport.APIResponse
// @Failure 400 {object} httptransport.APIResponse
// @Failure 500 {object} httptransport.APIResponse
// @Router /fishy [post]
func (s *Service) handleFishy(c *gin.Context) {
	at, err := s.location(httptransport.DecodeObject(c))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}

	listing, err := s.lister.List(c.Request.Context(), at)
	if err != nil {
		if platformerrors.IsKind(err, platformerrors.KindParse) {
			s.logger.WarnTag("FISH", "unparsed fish output near %s", at)
			raw, _ := platformerrors.DetailsOf(err).(string)
			httptransport.RespondSuccess(c, http.StatusOK, fish.Unparsed(raw))
			return
		}
		s.logger.ErrorTag("FISH", "fish lookup failed near %s: %v", at, err)
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, listing)
}

func (s *Service) location(body map[string]any) (geo.Coordinate, error) {
	hasLat := httptransport.Present(body, "latitude")
	hasLon := httptransport.Present(body, "longitude")
	if !hasLat && !hasLon {
		return s.fallback, nil
	}

	lat, okLat := httptransport.Number(body["latitude"])
	lon, okLon := httptransport.Number(body["longitude"])
	at := geo.Coordinate{Latitude: lat, Longitude: lon}
	if !hasLat || !hasLon || !okLat || !okLon || at.Validate() != nil {
		return geo.Coordinate{}, platformerrors.New(platformerrors.KindInput, "fishy.location",
			fmt.Sprintf("Invalid latitude or longitude: %v, %v", body["latitude"], body["longitude"]))
	}
	return at, nil
}
