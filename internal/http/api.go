package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"account-api/internal/service"
)

// DefaultTokenHeader carries the session token on protected routes.
const DefaultTokenHeader = "X-API-TOKEN"

// Handler wires HTTP routes to domain services.
type Handler struct {
	registration service.RegistrationService
	auth         service.AuthService
	guard        service.SessionGuard
	profile      service.ProfileService
	metrics      *Metrics
	log          logrus.FieldLogger
	tokenHeader  string
}

// Services groups the collaborators the handler delegates to.
type Services struct {
	Registration service.RegistrationService
	Auth         service.AuthService
	Guard        service.SessionGuard
	Profile      service.ProfileService
}

func NewHandler(svc Services, metrics *Metrics, log logrus.FieldLogger, tokenHeader string) *Handler {
	if tokenHeader == "" {
		tokenHeader = DefaultTokenHeader
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{
		registration: svc.Registration,
		auth:         svc.Auth,
		guard:        svc.Guard,
		profile:      svc.Profile,
		metrics:      metrics,
		log:          log,
		tokenHeader:  tokenHeader,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log, h.metrics))
	router.Use(corsMiddleware(h.tokenHeader))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.POST("/users", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/health", func(c *gin.Context) {
			respondData(c, "OK")
		})

		current := api.Group("/users/current", h.requireSession())
		current.GET("", h.getCurrentUser)
		current.PATCH("", h.updateCurrentUser)
	}

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not found")
	})
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.registration.Register(c.Request.Context(), req)
	h.metrics.Registrations.WithLabelValues(result(err)).Inc()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, "OK")
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req)
	h.metrics.Logins.WithLabelValues(result(err)).Inc()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, TokenResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	})
}

func (h *Handler) getCurrentUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, service.ErrMissingToken.Error())
		return
	}
	respondData(c, profileToResponse(h.profile.Get(user)))
}

func (h *Handler) updateCurrentUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, service.ErrMissingToken.Error())
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profile.Update(c.Request.Context(), user, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, profileToResponse(profile))
}

func profileToResponse(p service.Profile) UserResponse {
	return UserResponse{Username: p.Username, Name: p.Name}
}
