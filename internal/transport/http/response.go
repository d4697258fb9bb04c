package httptransport

import (
	"github.com/gin-gonic/gin"

	platformerrors "adventure-server-go/internal/platform/errors"
)

// APIResponse is the envelope every /api endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// RespondSuccess writes {success:true, data}.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, APIResponse{Success: true, Data: data})
}

// RespondError writes {success:false, error, details?}.
func RespondError(c *gin.Context, httpStatus int, message string, details interface{}) {
	c.JSON(httpStatus, APIResponse{Success: false, Error: message, Details: details})
}

// RespondErr maps a typed error onto status, message and details.
func RespondErr(c *gin.Context, err error) {
	_ = c.Error(err)
	RespondError(c, platformerrors.HTTPStatus(err), platformerrors.Message(err), platformerrors.DetailsOf(err))
}
