package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"ramadantracker.app/config"
	apperrors "ramadantracker.app/errors"
	"ramadantracker.app/metrics"
	"ramadantracker.app/models"
	"ramadantracker.app/service"
)

// Server represents the HTTP server and API handler
type Server struct {
	router              *gin.Engine
	config              *config.Config
	subscriptionService service.SubscriptionManagerInterface
	dispatchMetrics     *metrics.DispatchMetrics
	vapidPublicKey      string
}

// ServerOptions bundles the dependencies needed to build a server
type ServerOptions struct {
	Config              *config.Config
	SubscriptionService service.SubscriptionManagerInterface
	DispatchMetrics     *metrics.DispatchMetrics
	VAPIDPublicKey      string
}

// NewServer creates and configures a new HTTP server
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Config == nil {
		return nil, apperrors.NewConfigurationError("server config is required", nil)
	}
	if opts.SubscriptionService == nil {
		return nil, apperrors.NewConfigurationError("subscription service is required", nil)
	}

	server := &Server{
		router:              gin.Default(),
		config:              opts.Config,
		subscriptionService: opts.SubscriptionService,
		dispatchMetrics:     opts.DispatchMetrics,
		vapidPublicKey:      opts.VAPIDPublicKey,
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(corsMiddleware())
	{
		api.POST("/push/subscribe", s.subscribe)
		api.POST("/push/unsubscribe", s.unsubscribe)
		api.GET("/push/public-key", s.publicKey)
	}

	// Preflight no-op for any /api path.
	s.router.OPTIONS("/api/*path", corsMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.ServeStaticFiles()
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// corsMiddleware echoes the request origin so the PWA can call the API from
// any origin it is served on.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "content-type")
		c.Next()
	}
}

func (s *Server) subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	slog.Debug("Handling push subscribe request")

	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, apperrors.NewValidationError("invalid request body"))
		return
	}

	if err := s.subscriptionService.Subscribe(c.Request.Context(), &req); err != nil {
		slog.Error("Subscribe error", "error", err, "endpoint", req.Subscription.Endpoint)
		s.handleError(c, err)
		return
	}

	slog.Debug("Subscription upserted", "endpoint", req.Subscription.Endpoint)
	c.JSON(http.StatusOK, models.OkResponse{Ok: true})
}

func (s *Server) unsubscribe(c *gin.Context) {
	var req models.UnsubscribeRequest
	slog.Debug("Handling push unsubscribe request")

	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, apperrors.NewValidationError("invalid request body"))
		return
	}

	if err := s.subscriptionService.Unsubscribe(c.Request.Context(), req.Endpoint); err != nil {
		slog.Error("Unsubscribe error", "error", err, "endpoint", req.Endpoint)
		s.handleError(c, err)
		return
	}

	slog.Debug("Subscription removed", "endpoint", req.Endpoint)
	c.JSON(http.StatusOK, models.OkResponse{Ok: true})
}

// publicKey serves the application server key clients pass to
// pushManager.subscribe.
func (s *Server) publicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": s.vapidPublicKey})
}

// handleError handles different types of application errors
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	var statusCode int
	var message string

	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ValidationError:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case apperrors.NotFoundError:
			statusCode = http.StatusNotFound
			message = appErr.Message
		case apperrors.PushError:
			statusCode = http.StatusServiceUnavailable
			message = "Push service unavailable"
		case apperrors.DatabaseError:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		default:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	} else {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, models.ErrorResponse{Error: message})
}
