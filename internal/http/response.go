package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"account-api/internal/service"
)

// WebResponse is the envelope of every API response. Exactly one field is set.
type WebResponse struct {
	Data   any     `json:"data"`
	Errors *string `json:"errors"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type UserResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, WebResponse{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, WebResponse{Errors: &message})
}

// respondServiceError maps a service failure to its status code and public message.
func respondServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	respondError(c, statusFor(service.KindOf(err)), service.PublicMessage(err))
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// result is the metrics label for an operation outcome.
func result(err error) string {
	if err == nil {
		return "success"
	}
	return service.KindOf(err).String()
}
