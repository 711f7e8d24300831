package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownDifficulty):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError aborts with the status of err's kind. Unclassified errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("request failed: %s", err)
		abortWithError(c, code, "An unexpected error occurred")
		return
	}
	abortWithError(c, code, err.Error())
}

// objectIDParam parses a path parameter as an ObjectID, aborting with 400 when
// it is malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", domain.ErrValidation, field)
	}
	return &t, nil
}

// parseObjectID parses an optional hex ObjectID from a request field.
func parseObjectID(field string, value *string) (*primitive.ObjectID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s format", domain.ErrValidation, field)
	}
	return &id, nil
}
