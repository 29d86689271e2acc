package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nawel-dev/nawel/internal/services"
)

// respondServiceError maps a service error to its HTTP status. Unclassified
// errors come back opaque with a correlation id for the logs.
func respondServiceError(ctx *gin.Context, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrGiftNotFound),
		errors.Is(err, services.ErrListNotFound),
		errors.Is(err, services.ErrUserNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrSelfReservation),
		errors.Is(err, services.ErrAlreadyReserved),
		errors.Is(err, services.ErrNotReserved),
		errors.Is(err, services.ErrValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrReservationConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	default:
		correlationID := uuid.NewString()

		log.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"path":           ctx.FullPath(),
			"error":          err,
		}).Error("unhandled service error")

		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":         "An internal server error occurred",
			"correlationId": correlationID,
		})
	}
}
