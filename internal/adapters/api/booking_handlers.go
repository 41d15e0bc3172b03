package api

import (
	"io"
	"net/http"

	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/apperr"
	"tourbook/internal/application/query"
	domainQuery "tourbook/internal/domain/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBytes = 64 << 10
)

// CheckoutSession godoc
//
//	@Summary		Open a checkout session
//	@Description	Creates a payment provider checkout session for the tour
//	@Tags			bookings
//	@Produce		json
//	@Param			tourId	path		string	true	"Tour ID"
//	@Success		200		{object}	payment.CheckoutSession
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/bookings/checkout-session/{tourId} [get]
//	@Security		CookieAuth
func (h *Handler) CheckoutSession(c *gin.Context) {
	session, err := h.tours.CheckoutSession(c.Request.Context(), c.Param("tourId"), identity(c).User)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// WebhookCheckout godoc
//
//	@Summary		Payment provider webhook
//	@Description	Verifies the signed event and records the paid booking
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Event signature"
//	@Success		200					{object}	map[string]bool
//	@Failure		400					{object}	map[string]string
//	@Router			/webhook-checkout [post]
func (h *Handler) WebhookCheckout(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		middleware.AbortWithError(c, apperr.Validation("webhook body could not be read"))
		return
	}

	booking, err := h.tours.CompleteCheckout(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if booking != nil {
		log.Info().Str("booking_id", booking.ID).Str("tour_id", booking.TourID).Msg("checkout completed")
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MyBookings godoc
//
//	@Summary	Bookings of the current user
//	@Tags		bookings
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/bookings/my [get]
//	@Security	CookieAuth
func (h *Handler) MyBookings(c *gin.Context) {
	h.listBookings(c, domainQuery.Eq("user", identity(c).User.ID))
}

// ListBookings godoc
//
//	@Summary	List bookings
//	@Tags		bookings
//	@Produce	json
//	@Param		tour	query		string	false	"Filter by tour"
//	@Param		user	query		string	false	"Filter by user"
//	@Param		paid	query		bool	false	"Filter by payment status"
//	@Success	200		{object}	map[string]any
//	@Failure	403		{object}	map[string]string
//	@Router		/bookings [get]
//	@Security	CookieAuth
func (h *Handler) ListBookings(c *gin.Context) {
	h.listBookings(c)
}

func (h *Handler) listBookings(c *gin.Context, base ...domainQuery.Condition) {
	spec, ok := h.translate(c, query.Bookings, base...)
	if !ok {
		return
	}

	bookings, err := h.tours.ListBookings(c.Request.Context(), spec)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	writeList(c, spec, bookings)
}

// CreateBooking godoc
//
//	@Summary	Record a booking
//	@Tags		bookings
//	@Accept		json
//	@Produce	json
//	@Param		booking	body		domainTour.BookingCreateRequest	true	"Booking"
//	@Success	201		{object}	domainTour.Booking
//	@Failure	400		{object}	map[string]string
//	@Router		/bookings [post]
//	@Security	CookieAuth
func (h *Handler) CreateBooking(c *gin.Context) {
	var req domainTour.BookingCreateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	b, err := h.tours.CreateBooking(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBooking godoc
//
//	@Summary		Get a booking
//	@Description	The booking owner, admins and lead guides may read a booking
//	@Tags			bookings
//	@Produce		json
//	@Param			id	path		string	true	"Booking ID"
//	@Success		200	{object}	domainTour.Booking
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/bookings/{id} [get]
//	@Security		CookieAuth
func (h *Handler) GetBooking(c *gin.Context) {
	b, ok := middleware.Resource[*domainTour.Booking](c)
	if !ok {
		middleware.AbortWithError(c, errMissingResource)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UpdateBooking godoc
//
//	@Summary	Update a booking
//	@Tags		bookings
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Booking ID"
//	@Param		booking	body		domainTour.BookingUpdateRequest	true	"Fields to update"
//	@Success	200		{object}	domainTour.Booking
//	@Failure	403		{object}	map[string]string
//	@Router		/bookings/{id} [patch]
//	@Security	CookieAuth
func (h *Handler) UpdateBooking(c *gin.Context) {
	b, ok := middleware.Resource[*domainTour.Booking](c)
	if !ok {
		middleware.AbortWithError(c, errMissingResource)
		return
	}

	var req domainTour.BookingUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	updated, err := h.tours.UpdateBooking(c.Request.Context(), b, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBooking godoc
//
//	@Summary	Delete a booking
//	@Tags		bookings
//	@Param		id	path	string	true	"Booking ID"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Router		/bookings/{id} [delete]
//	@Security	CookieAuth
func (h *Handler) DeleteBooking(c *gin.Context) {
	if err := h.tours.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
