package identify

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainidentify "adventure-server-go/internal/domain/identify"
	"adventure-server-go/internal/domain/upload"
	platformerrors "adventure-server-go/internal/platform/errors"
	httptransport "adventure-server-go/internal/transport/http"
	"adventure-server-go/internal/utils"
)

// Identifier names the subject of a spooled photo.
type Identifier interface {
	Identify(ctx context.Context, kind domainidentify.Kind, path string) (*domainidentify.Result, error)
}

// Spooler stores uploads for the duration of a request.
type Spooler interface {
	Write(r io.Reader, filename, kind string) (*upload.File, error)
}

type Service struct {
	identifier Identifier
	spool      Spooler
	logger     *utils.Logger
}

func NewService(identifier Identifier, spool Spooler, logger *utils.Logger) (*Service, error) {
	if identifier == nil || spool == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "identify.new", "identifier and upload spool are required")
	}
	return &Service{identifier: identifier, spool: spool, logger: logger}, nil
}

func (s *Service) Register(_ context.Context, router *gin.RouterGroup) {
	router.POST("/identify", s.handleIdentify)
	s.logger.InfoTag("HTTP", "identify routes registered")
}

// handleIdentify
// @Summary Identify wildlife in a photo
// @Description Names the animal, bird or plant in an uploaded image.
// @Tags Identify
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "photo"
// @Param id_type formData string true "animal, bird or flora"
// @Success 200 {object} httptransport.APIResponse
// @Failure 400 {object} httptransport.APIResponse
// @Failure 500 {object} httptransport.APIResponse
// @Router /identify [post]
func (s *Service) handleIdentify(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httptransport.RespondError(c, http.StatusBadRequest, "uploaded file is too large", nil)
			return
		}
		httptransport.RespondError(c, http.StatusBadRequest, "No image file provided", nil)
		return
	}
	if header.Filename == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "No selected file", nil)
		return
	}

	kind, err := domainidentify.ParseKind(c.PostForm("id_type"))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "No image file provided", nil)
		return
	}
	defer file.Close()

	spooled, err := s.spool.Write(file, header.Filename, string(kind))
	if err != nil {
		s.logger.WarnTag("UPLOAD", "failed to spool %s upload: %v", kind, err)
		httptransport.RespondErr(c, err)
		return
	}
	defer spooled.Remove()

	result, err := s.identifier.Identify(c.Request.Context(), kind, spooled.Path)
	if err != nil {
		s.logger.ErrorTag("IDENTIFY", "%s identification failed: %v", kind, err)
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, result)
}
