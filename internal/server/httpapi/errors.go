package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/burblyhq/burbly/internal/common"
)

// statusFor maps service sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrOTPExpired),
		errors.Is(err, common.ErrResetTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorMailDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// detailPrefixes are the sentinel texts stripped from client-visible
// messages; the wrapped detail after the colon is what the client sees.
var detailPrefixes = []error{
	common.ErrorValidation,
	common.ErrorUnauthorized,
	common.ErrorForbidden,
	common.ErrorNotFound,
	common.ErrorConflict,
	common.ErrOTPExpired,
	common.ErrResetTokenExpired,
}

func errorDetail(err error) string {
	msg := err.Error()
	for _, sentinel := range detailPrefixes {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	// Mail and internal failures keep their detail server-side.
	if errors.Is(err, common.ErrorMailDelivery) {
		return "failed to send email"
	}
	if statusFor(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return msg
}

// respondError writes the JSON error body for a service failure. Server
// faults keep their detail out of the response; it goes to the log.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorDetail(err)})
}
