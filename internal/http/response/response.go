package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// StatusFor maps an error kind onto the shell's answer. Backend 4xx statuses
// other than 401 pass through unchanged.
func StatusFor(err error) int {
	var status int
	var e *apierr.Error
	if errors.As(err, &e) {
		status = e.Status
	}
	switch apierr.KindOf(err) {
	case apierr.KindValidation:
		if status >= 400 && status < 500 && status != http.StatusUnauthorized {
			return status
		}
		return http.StatusBadRequest
	case apierr.KindUnauthorized:
		return http.StatusUnauthorized
	case apierr.KindNetwork:
		return http.StatusBadGateway
	case apierr.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

// RespondAPIError writes err from a dispatcher with its kind as the code.
func RespondAPIError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), ErrorEnvelope{
		Error: APIError{
			Message: apierr.Message(err),
			Code:    string(apierr.KindOf(err)),
		},
	})
}
