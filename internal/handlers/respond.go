package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/middleware"
	"github.com/smarttransit/bus-booking-backend/internal/services"
)

// respondError maps a service error onto a status code and a stable error code.
// Anything untyped is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		capacityErr   *services.CapacityError
		authzErr      *services.AuthorizationError
		stateErr      *services.StateError
	)

	switch {
	case errors.As(err, &validationErr):
		body := gin.H{"error": validationErr.Error(), "code": "VALIDATION_ERROR"}
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error(), "code": "NOT_FOUND"})
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authzErr.Error(), "code": "FORBIDDEN"})
	case errors.As(err, &capacityErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     capacityErr.Error(),
			"code":      "INSUFFICIENT_SEATS",
			"requested": capacityErr.Requested,
			"available": capacityErr.Available,
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error(), "code": "INVALID_STATE"})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error(), "code": "CONFLICT"})
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL_ERROR"})
	}
}

// bindJSON decodes the request body, answering 400 on malformed input
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return false
	}
	return true
}

// requireUser returns the authenticated caller or answers 401
func requireUser(c *gin.Context) (middleware.UserContext, bool) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "MISSING_USER_CONTEXT"})
	}
	return userCtx, ok
}
