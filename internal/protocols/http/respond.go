package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// respondError writes the error envelope. Errors outside the taxonomy are
// internal and their details stay in the log.
func respondError(c *gin.Context, err error) {
	appErr, ok := asAppError(err)
	if !ok {
		logger.WithRequestID(c.Request.Context()).WithError(err).Error(c.Request.Method + " " + c.Request.URL.Path + " failed")
		appErr = &models.AppError{Kind: models.KindBackendRejected, Message: "internal server error", StatusCode: 500}
	}
	c.JSON(appErr.HTTPStatus(), appErr.ToAPIResponse())
}

func abortWithError(c *gin.Context, err error) {
	respondError(c, err)
	c.Abort()
}

func badRequest(c *gin.Context, message string) {
	respondError(c, models.NewBackendRejected(message, 400))
}

func asAppError(err error) (*models.AppError, bool) {
	if models.KindOf(err) == models.KindNetworkFailure {
		return nil, false
	}
	return models.Classify(err), true
}
