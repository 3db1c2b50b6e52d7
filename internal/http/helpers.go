package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/robinjoseph08/golib/logger"

	"github.com/mrlokans/library/internal/errcodes"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context
}

// respondError maps err onto its status code. Errors without a code are
// logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	if e, ok := errcodes.Lookup(err); ok {
		if e.HTTPCode >= http.StatusInternalServerError {
			requestLogger(c).Err(err).Error("request failed")
		}
		c.JSON(e.HTTPCode, ErrorResponse{Error: e.Message, Code: e.Code})
		return
	}
	respondInternalError(c, err)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

// respondInternalError logs the error and hides it from the client.
func respondInternalError(c *gin.Context, err error) {
	requestLogger(c).Err(err).Error("internal error", logger.Data{"path": c.FullPath()})
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// bindJSON decodes the body into dst or responds 400 and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body.",
			Code:    "validation_error",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// parseIDParam extracts a positive integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter. Missing values give 0.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}
