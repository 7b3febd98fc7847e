package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"threadhub/internal/core"
	wsProtocol "threadhub/internal/protocols/websocket"
	"threadhub/pkg/logger"
)

// HealthChecker reports backend dependency health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services bundles what the router serves
type Services struct {
	Auth      core.AuthService
	Comments  core.CommentService
	Reactions core.ReactionService
	// Events is optional; when set, /ws/articles/:id streams comment events
	Events *wsProtocol.Handler
	// Health is optional; when set, /health pings it
	Health HealthChecker
}

// Server manages the HTTP REST API server
type Server struct {
	router  *gin.Engine
	http    *http.Server
	svc     Services
	version string
}

// NewServer creates a new HTTP server with all handlers
func NewServer(svc Services, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestID())
	router.Use(requestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		router:  router,
		svc:     svc,
		version: "v1",
	}
	s.http = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
		}

		admin := v1.Group("/admin", AuthMiddleware(s.svc.Auth), RoleMiddleware("admin"))
		{
			admin.PUT("/users/:id/role", s.updateUserRole)
		}

		// Listing is public; a valid bearer token personalizes reactions
		v1.GET("/articles/:id/comments", OptionalAuthMiddleware(s.svc.Auth), s.listComments)
		v1.GET("/reactions/:kind/:id", OptionalAuthMiddleware(s.svc.Auth), s.getReaction)

		protected := v1.Group("", AuthMiddleware(s.svc.Auth))
		{
			protected.POST("/articles/:id/comments", s.createComment)
			protected.DELETE("/comments/:id", s.deleteComment)
			protected.PUT("/reactions/:kind/:id", s.setReaction)
			protected.DELETE("/reactions/:kind/:id", s.clearReaction)
		}
	}

	if s.svc.Events != nil {
		s.router.GET("/ws/articles/:id", s.svc.Events.HandleWebSocket)
		s.router.GET("/ws/status", s.svc.Events.GetStatus)
	}
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.http.Addr = addr
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Router returns the gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestID tags the request context with X-Request-ID, generating one when
// the caller sent none
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// requestLogger logs every request through pkg/logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.HTTP(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), int(time.Since(start).Milliseconds()))
	}
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if s.svc.Health != nil {
		if err := s.svc.Health.HealthCheck(c.Request.Context()); err != nil {
			logger.Warnf("health check failed: %v", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":  status,
		"version": s.version,
		"time":    time.Now().Format(time.RFC3339),
	})
}
