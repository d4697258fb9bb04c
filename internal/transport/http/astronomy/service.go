package astronomy

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainastronomy "adventure-server-go/internal/domain/astronomy"
	platformerrors "adventure-server-go/internal/platform/errors"
	httptransport "adventure-server-go/internal/transport/http"
	"adventure-server-go/internal/utils"
)

// Charter renders a star chart for the caller at ip.
type Charter interface {
	ChartFor(ctx context.Context, ip string) (*domainastronomy.Chart, error)
}

type Service struct {
	charts Charter
	logger *utils.Logger
}

func NewService(charts Charter, logger *utils.Logger) (*Service, error) {
	if charts == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "astronomy.new", "star chart service is required")
	}
	return &Service{charts: charts, logger: logger}, nil
}

func (s *Service) Register(_ context.Context, router *gin.RouterGroup) {
	router.POST("/astronomy", s.handleAstronomy)
	s.logger.InfoTag("HTTP", "astronomy routes registered")
}

// handleAstronomy
// @Summary Star chart
// @Description Renders tonight's sky for the caller's approximate location.
// @Tags Astronomy
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Failure 500 {object} httptransport.APIResponse
// @Router /astronomy [post]
func (s *Service) handleAstronomy(c *gin.Context) {
	ip := domainastronomy.ClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr)

	chart, err := s.charts.ChartFor(c.Request.Context(), ip)
	if err != nil {
		s.logger.ErrorTag("ASTRO", "star chart for %s failed: %v", ip, err)
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, chart)
}
