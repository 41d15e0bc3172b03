package api

import (
	"net/http"

	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/application/query"
	domainQuery "tourbook/internal/domain/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/gin-gonic/gin"
)

// ListReviews godoc
//
//	@Summary	List reviews
//	@Tags		reviews
//	@Produce	json
//	@Param		rating	query		int		false	"Filter by rating, supports rating[gte]=4"
//	@Param		sort	query		string	false	"Comma separated sort fields"
//	@Param		page	query		int		false	"Page number"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	map[string]any
//	@Router		/reviews [get]
func (h *Handler) ListReviews(c *gin.Context) {
	h.listReviews(c)
}

// ListTourReviews godoc
//
//	@Summary		List reviews of a tour
//	@Description	The tour from the path always wins over a tour filter in the query string
//	@Tags			reviews
//	@Produce		json
//	@Param			id	path		string	true	"Tour ID"
//	@Success		200	{object}	map[string]any
//	@Router			/tours/{id}/reviews [get]
func (h *Handler) ListTourReviews(c *gin.Context) {
	h.listReviews(c, domainQuery.Eq("tour", c.Param("id")))
}

func (h *Handler) listReviews(c *gin.Context, base ...domainQuery.Condition) {
	spec, ok := h.translate(c, query.Reviews, base...)
	if !ok {
		return
	}

	reviews, err := h.tours.ListReviews(c.Request.Context(), spec)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	writeList(c, spec, reviews)
}

// CreateReview godoc
//
//	@Summary	Create a review
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Param		review	body		domainTour.ReviewCreateRequest	true	"Review with its tour"
//	@Success	201		{object}	domainTour.Review
//	@Failure	400		{object}	map[string]string
//	@Failure	403		{object}	map[string]string
//	@Router		/reviews [post]
//	@Security	CookieAuth
func (h *Handler) CreateReview(c *gin.Context) {
	h.createReview(c, "")
}

// CreateTourReview godoc
//
//	@Summary	Review a tour
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Tour ID"
//	@Param		review	body		domainTour.ReviewCreateRequest	true	"Review"
//	@Success	201		{object}	domainTour.Review
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/tours/{id}/reviews [post]
//	@Security	CookieAuth
func (h *Handler) CreateTourReview(c *gin.Context) {
	h.createReview(c, c.Param("id"))
}

func (h *Handler) createReview(c *gin.Context, tourID string) {
	var req domainTour.ReviewCreateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	rv, err := h.tours.CreateReview(c.Request.Context(), identity(c).User.ID, tourID, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

// GetReview godoc
//
//	@Summary	Get a review
//	@Tags		reviews
//	@Produce	json
//	@Param		id	path		string	true	"Review ID"
//	@Success	200	{object}	domainTour.Review
//	@Failure	404	{object}	map[string]string
//	@Router		/reviews/{id} [get]
//	@Security	CookieAuth
func (h *Handler) GetReview(c *gin.Context) {
	rv, err := h.tours.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rv)
}

// UpdateReview godoc
//
//	@Summary		Update a review
//	@Description	Only the author may edit a review
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Review ID"
//	@Param			review	body		domainTour.ReviewUpdateRequest	true	"Fields to update"
//	@Success		200		{object}	domainTour.Review
//	@Failure		403		{object}	map[string]string
//	@Router			/reviews/{id} [patch]
//	@Security		CookieAuth
func (h *Handler) UpdateReview(c *gin.Context) {
	rv, ok := middleware.Resource[*domainTour.Review](c)
	if !ok {
		middleware.AbortWithError(c, errMissingResource)
		return
	}

	var req domainTour.ReviewUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	updated, err := h.tours.UpdateReview(c.Request.Context(), rv, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReview godoc
//
//	@Summary		Delete a review
//	@Description	The author or an admin may delete a review
//	@Tags			reviews
//	@Param			id	path	string	true	"Review ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Router			/reviews/{id} [delete]
//	@Security		CookieAuth
func (h *Handler) DeleteReview(c *gin.Context) {
	rv, ok := middleware.Resource[*domainTour.Review](c)
	if !ok {
		middleware.AbortWithError(c, errMissingResource)
		return
	}
	if err := h.tours.DeleteReview(c.Request.Context(), rv.ID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
