package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainimage "adventure-server-go/internal/domain/image"
	httptransport "adventure-server-go/internal/transport/http"
	"adventure-server-go/internal/utils"
)

// StatsProvider reports artifact store statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (map[string]any, error)
}

// Capability reports whether an outbound capability has credentials.
type Capability interface {
	Configured() bool
}

// ImageStats reports photo pipeline counters.
type ImageStats interface {
	Metrics() domainimage.Metrics
}

type Service struct {
	capabilities map[string]Capability
	artifacts    StatsProvider
	images       ImageStats
	logger       *utils.Logger
}

func NewService(capabilities map[string]Capability, artifacts StatsProvider, logger *utils.Logger) *Service {
	return &Service{capabilities: capabilities, artifacts: artifacts, logger: logger}
}

// WithImages adds the photo pipeline counters to the report.
func (s *Service) WithImages(images ImageStats) *Service {
	s.images = images
	return s
}

func (s *Service) Register(_ context.Context, router *gin.RouterGroup) {
	router.GET("/health", s.handleHealth)
}

// handleHealth
// @Summary Service health
// @Description Reports which capabilities are configured, artifact store statistics and photo pipeline counters.
// @Tags Health
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	capabilities := make(map[string]bool, len(s.capabilities))
	for name, capability := range s.capabilities {
		capabilities[name] = capability != nil && capability.Configured()
	}

	data := gin.H{
		"status":       "ok",
		"capabilities": capabilities,
	}
	if s.artifacts != nil {
		stats, err := s.artifacts.Stats(c.Request.Context())
		if err != nil {
			s.logger.WarnTag("HTTP", "artifact stats unavailable: %v", err)
			data["status"] = "degraded"
		} else {
			data["artifacts"] = stats
		}
	}
	if s.images != nil {
		data["images"] = s.images.Metrics()
	}
	httptransport.RespondSuccess(c, http.StatusOK, data)
}
