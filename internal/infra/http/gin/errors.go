package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reservd/internal/domain/availability"
	"reservd/internal/domain/rates"
	domainreservation "reservd/internal/domain/reservation"
	domainresource "reservd/internal/domain/resource"
	"reservd/internal/domain/shared/interval"
)

// respondError maps engine errors onto HTTP statuses. Busy gets 503 with a
// Retry-After hint since the caller may simply try again.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interval.ErrInvalidInterval),
		errors.Is(err, rates.ErrBelowMinimumDuration),
		errors.Is(err, domainreservation.ErrRequesterRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainreservation.ErrNotFound),
		errors.Is(err, domainresource.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, availability.ErrResourceUnavailable),
		errors.Is(err, domainreservation.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainreservation.ErrPriceMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domainreservation.ErrBusy):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
