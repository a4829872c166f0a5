package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamly/internal/app/commands"
	bookingapp "roamly/internal/app/handlers/booking"
	"roamly/internal/infra/obs"
)

type BookingHandler struct {
	Commands commands.Bus
}

type commitReservationRequest struct {
	ItemID         string    `json:"item_id"`
	Variant        string    `json:"variant"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	Date           time.Time `json:"date"`
	Quantity       int       `json:"quantity"`
	Note           string    `json:"note"`
	EstimatedTotal int64     `json:"estimated_total"`
}

func (h BookingHandler) Commit(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req commitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CommitReservationCommand{
		CommandID:       generateCommandID(),
		CallerID:        user.ID,
		ItemID:          req.ItemID,
		Variant:         req.Variant,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Date:            req.Date,
		Quantity:        req.Quantity,
		Note:            req.Note,
		EstimatedTotal:  req.EstimatedTotal,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	start := time.Now()
	result, err := commands.Dispatch[bookingapp.CommitReservationCommand, *bookingapp.CommitReservationResult](c.Request.Context(), h.Commands, cmd)
	obs.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		obs.CommitsTotal.WithLabelValues(rejectionReason(err)).Inc()
		writeRejection(c, err)
		return
	}
	obs.CommitsTotal.WithLabelValues("committed").Inc()
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) InitiatePayment(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := bookingapp.InitiatePaymentCommand{
		ReservationID: c.Param("id"),
		CallerID:      user.ID,
		CallerEmail:   user.Email,
	}
	result, err := commands.Dispatch[bookingapp.InitiatePaymentCommand, *bookingapp.InitiatePaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		obs.PaymentInitsTotal.WithLabelValues(rejectionReason(err)).Inc()
		writeRejection(c, err)
		return
	}
	obs.PaymentInitsTotal.WithLabelValues("initiated").Inc()
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := bookingapp.CancelReservationCommand{
		ReservationID: c.Param("id"),
		CallerID:      user.ID,
	}
	result, err := commands.Dispatch[bookingapp.CancelReservationCommand, *bookingapp.CancelReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeRejection(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func writeRejection(c *gin.Context, err error) {
	var rej *bookingapp.RejectedError
	if !errors.As(err, &rej) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{
		"error":     rej.Error(),
		"reason":    string(rej.Reason),
		"retryable": rej.Retryable,
	}
	c.JSON(statusForReason(rej.Reason), body)
}

func statusForReason(reason bookingapp.Reason) int {
	switch reason {
	case bookingapp.ReasonNotFound:
		return http.StatusNotFound
	case bookingapp.ReasonInvalidSelection:
		return http.StatusUnprocessableEntity
	case bookingapp.ReasonUnavailable, bookingapp.ReasonConflict, bookingapp.ReasonInvalidState:
		return http.StatusConflict
	case bookingapp.ReasonForbidden:
		return http.StatusForbidden
	case bookingapp.ReasonUpstreamPayment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func rejectionReason(err error) string {
	var rej *bookingapp.RejectedError
	if errors.As(err, &rej) {
		return string(rej.Reason)
	}
	return "error"
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
