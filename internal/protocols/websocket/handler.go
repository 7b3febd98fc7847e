package websocket

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"threadhub/internal/core"
)

// Handler upgrades article event subscriptions
type Handler struct {
	hub            *Hub
	authSvc        core.AuthService
	allowedOrigins []string
	upgrader       websocket.Upgrader
	metrics        struct {
		sync.Mutex
		totalConnections uint64
		activeArticles   map[int64]int
	}
}

// NewHandler creates a websocket handler. authSvc may be nil, in which
// case every listener is anonymous.
func NewHandler(hub *Hub, authSvc core.AuthService, allowedOrigins []string) *Handler {
	if allowedOrigins == nil {
		allowedOrigins = []string{"*"}
	}
	handler := &Handler{
		hub:            hub,
		authSvc:        authSvc,
		allowedOrigins: allowedOrigins,
	}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       handler.checkOrigin,
		EnableCompression: true,
	}
	handler.metrics.activeArticles = make(map[int64]int)
	return handler
}

// HandleWebSocket subscribes the caller to an article's comment events.
// Listening is public; a token, when given, must be valid.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	articleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || articleID <= 0 {
		h.sendWebSocketError(c, http.StatusBadRequest, "invalid_article", "article id must be a positive integer")
		return
	}

	userID := "anonymous"
	if token, err := extractToken(c); err == nil && h.authSvc != nil {
		user, err := h.authSvc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			h.sendWebSocketError(c, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}
		userID = user.ID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// gorilla/websocket has already written the HTTP error response
		logrus.Errorf("websocket upgrade failed: %v", err)
		return
	}

	h.updateMetrics(articleID, true)
	h.hub.ServeClient(conn, userID, articleID, func() {
		h.updateMetrics(articleID, false)
	})

	logrus.Infof("websocket listener connected: article_id=%d user_id=%s", articleID, userID)
}

// GetStatus returns listener statistics
func (h *Handler) GetStatus(c *gin.Context) {
	h.metrics.Lock()
	defer h.metrics.Unlock()

	articles := make([]gin.H, 0, len(h.metrics.activeArticles))
	for articleID, count := range h.metrics.activeArticles {
		articles = append(articles, gin.H{"article_id": articleID, "listeners": count})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_connections": h.metrics.totalConnections,
		"active_articles":   articles,
		"server_time":       time.Now().UTC(),
	})
}

// extractToken reads the token from the query, header or cookie
func extractToken(c *gin.Context) (string, error) {
	if token := c.Query("token"); token != "" {
		return token, nil
	}

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], nil
		}
	}

	if cookie, err := c.Request.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", fmt.Errorf("no authentication token provided")
}

// checkOrigin allows non-browser clients, local clients and the configured origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if u, err := url.Parse(origin); err == nil {
		host := strings.ToLower(u.Hostname())
		if host == "localhost" || host == "127.0.0.1" || host == "0.0.0.0" {
			return true
		}
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return gin.Mode() == gin.DebugMode
}

func (h *Handler) sendWebSocketError(c *gin.Context, status int, code, message string) {
	logrus.Warnf("websocket error: status=%d code=%s message=%s", status, code, message)

	c.JSON(status, gin.H{
		"success":   false,
		"error":     message,
		"code":      code,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) updateMetrics(articleID int64, connected bool) {
	h.metrics.Lock()
	defer h.metrics.Unlock()

	if connected {
		h.metrics.totalConnections++
		h.metrics.activeArticles[articleID]++
		return
	}
	if count, ok := h.metrics.activeArticles[articleID]; ok {
		if count <= 1 {
			delete(h.metrics.activeArticles, articleID)
		} else {
			h.metrics.activeArticles[articleID] = count - 1
		}
	}
}
