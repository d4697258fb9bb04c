package maps

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"adventure-server-go/internal/domain/artifact"
	platformerrors "adventure-server-go/internal/platform/errors"
	httptransport "adventure-server-go/internal/transport/http"
	"adventure-server-go/internal/utils"
)

const msgNotFound = "Map file not found."

// Opener resolves live artifacts by name.
type Opener interface {
	Open(ctx context.Context, name string) (artifact.Record, error)
}

type Service struct {
	artifacts Opener
	logger    *utils.Logger
}

func NewService(artifacts Opener, logger *utils.Logger) *Service {
	return &Service{artifacts: artifacts, logger: logger}
}

// Register mounts GET /maps/:name on the engine root.
func (s *Service) Register(_ context.Context, router gin.IRoutes) {
	router.GET("/maps/:name", s.handleMap)
}

// handleMap
// @Summary Rendered trip map
// @Description Serves a generated map until it expires.
// @Tags Trip
// @Produce html
// @Param name path string true "map file name"
// @Success 200 {string} string "HTML map"
// @Failure 404 {object} httptransport.APIResponse
// @Router /maps/{name} [get]
func (s *Service) handleMap(c *gin.Context) {
	rec, err := s.artifacts.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		if platformerrors.IsKind(err, platformerrors.KindNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, msgNotFound, nil)
			return
		}
		s.logger.ErrorTag("ARTIFACT", "failed to open map %s: %v", c.Param("name"), err)
		httptransport.RespondErr(c, err)
		return
	}

	contentType := rec.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "no-store")
	c.File(rec.Path)
}
