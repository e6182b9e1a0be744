package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reservd/internal/app/commands"
	"reservd/internal/app/dto"
	reservationapp "reservd/internal/app/handlers/reservation"
	"reservd/internal/app/queries"
	"reservd/internal/domain/shared/money"
)

// ReservationHandler translates HTTP requests into bus commands/queries. The
// caller's identity arrives pre-resolved in the X-Actor-ID header; the
// engine does not authenticate.
type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createReservationRequest struct {
	ResourceID    string       `json:"resource_id" binding:"required"`
	StartAt       time.Time    `json:"start_at" binding:"required"`
	EndAt         time.Time    `json:"end_at" binding:"required"`
	SuppliedTotal *money.Money `json:"total_price,omitempty"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reservationapp.CreateReservationCommand{
		CommandID:       uuid.NewString(),
		ResourceID:      req.ResourceID,
		RequesterID:     actor,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		SuppliedTotal:   req.SuppliedTotal,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationapp.CreateReservationCommand, *reservationapp.CreateReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Confirm(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := reservationapp.ConfirmReservationCommand{
		ReservationID: c.Param("id"),
		ActorID:       actor,
	}
	result, err := commands.Dispatch[reservationapp.ConfirmReservationCommand, *reservationapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := reservationapp.CancelReservationCommand{
		ReservationID: c.Param("id"),
		ActorID:       actor,
		Reason:        req.Reason,
	}
	result, err := commands.Dispatch[reservationapp.CancelReservationCommand, *reservationapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Quote(c *gin.Context) {
	q, ok := intervalQuery(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservationapp.QuotePriceQuery, *reservationapp.QuotePriceResult](c.Request.Context(), h.Queries, reservationapp.QuotePriceQuery{
		ResourceID: q.resourceID,
		StartAt:    q.startAt,
		EndAt:      q.endAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Availability(c *gin.Context) {
	q, ok := intervalQuery(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservationapp.CheckAvailabilityQuery, *reservationapp.CheckAvailabilityResult](c.Request.Context(), h.Queries, reservationapp.CheckAvailabilityQuery{
		ResourceID: q.resourceID,
		StartAt:    q.startAt,
		EndAt:      q.endAt,
		ExcludeID:  c.Query("exclude_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservationapp.ListByRequesterQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, reservationapp.ListByRequesterQuery{
		RequesterID: actor,
		Status:      c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListOwned(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservationapp.ListByOwnerQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, reservationapp.ListByOwnerQuery{
		OwnerID: actor,
		Status:  c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type intervalParams struct {
	resourceID string
	startAt    time.Time
	endAt      time.Time
}

func intervalQuery(c *gin.Context) (intervalParams, bool) {
	resourceID := c.Query("resource_id")
	if resourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource_id is required"})
		return intervalParams{}, false
	}
	startAt, err := time.Parse(time.RFC3339, c.Query("start_at"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be RFC3339"})
		return intervalParams{}, false
	}
	endAt, err := time.Parse(time.RFC3339, c.Query("end_at"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_at must be RFC3339"})
		return intervalParams{}, false
	}
	return intervalParams{resourceID: resourceID, startAt: startAt, endAt: endAt}, true
}

func requireActor(c *gin.Context) (string, bool) {
	actor := c.GetHeader("X-Actor-ID")
	if actor == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header is required"})
		return "", false
	}
	return actor, true
}

var _ ReservationHTTP = ReservationHandler{}
