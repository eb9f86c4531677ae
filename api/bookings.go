package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingResponse struct {
	Ref                 string  `json:"ref"`
	CustomerID          int64   `json:"customer_id"`
	OutboundFlightID    int64   `json:"outbound_flight_id"`
	ReturnFlightID      int64   `json:"return_flight_id,omitempty"`
	RoundTrip           bool    `json:"round_trip"`
	BookingDate         string  `json:"booking_date"`
	ActionDate          string  `json:"action_date"`
	Price               float64 `json:"price"`
	CancellationFee     float64 `json:"cancellation_fee"`
	Refund              float64 `json:"refund"`
	Status              string  `json:"status"`
	PartialCancellation bool    `json:"partial_cancellation,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.POST("/cancel", h.cancel)
	router.POST("/rebook", h.rebook)
	router.GET("/customer/:id", h.listForCustomer)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req booking.CancelBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

func (h *BookingHandler) rebook(c *gin.Context) {
	var req booking.RebookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rebooked, err := h.service.Rebook(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(rebooked))
}

func (h *BookingHandler) listForCustomer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	bookings, err := h.service.ListForCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Ref:                 b.Ref,
		CustomerID:          b.CustomerID,
		OutboundFlightID:    b.OutboundFlightID,
		ReturnFlightID:      b.ReturnFlightID,
		RoundTrip:           b.IsRoundTrip(),
		BookingDate:         b.BookingDate.Format("2006-01-02"),
		ActionDate:          b.ActionDate.Format("2006-01-02"),
		Price:               b.Price,
		CancellationFee:     b.CancellationFee,
		Refund:              b.RefundAmount(),
		Status:              string(b.Status),
		PartialCancellation: b.PartialCancellation,
	}
}
