package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Recovery turns panics into opaque 500 responses. The correlation id ties
// the client-visible body to the logged stack without leaking internals.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered interface{}) {
		correlationID := uuid.NewString()

		log.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"path":           ctx.FullPath(),
			"panic":          recovered,
		}).Error("request panicked")

		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":         "An internal server error occurred",
			"correlationId": correlationID,
		})
	})
}
