package api

import (
	"net/http"

	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/apperr"
	"tourbook/internal/application/query"
	domainTour "tourbook/internal/domain/tour"

	"github.com/gin-gonic/gin"
)

const maxGalleryImages = 3

// ListTours godoc
//
//	@Summary		List tours
//	@Description	Filter (e.g. price[gte]=100, difficulty=easy), sort, project and paginate tours
//	@Tags			tours
//	@Produce		json
//	@Param			sort	query		string	false	"Comma separated sort fields, '-' for descending"
//	@Param			fields	query		string	false	"Comma separated fields to return"
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(4)
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]string
//	@Router			/tours [get]
func (h *Handler) ListTours(c *gin.Context) {
	spec, ok := h.translate(c, query.Tours)
	if !ok {
		return
	}

	tours, err := h.tours.ListTours(c.Request.Context(), spec)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	writeList(c, spec, tours)
}

// GetTour godoc
//
//	@Summary	Get a tour
//	@Tags		tours
//	@Produce	json
//	@Param		id	path		string	true	"Tour ID"
//	@Success	200	{object}	domainTour.Tour
//	@Failure	404	{object}	map[string]string
//	@Router		/tours/{id} [get]
func (h *Handler) GetTour(c *gin.Context) {
	t, err := h.tours.GetTour(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTour godoc
//
//	@Summary	Create a tour
//	@Tags		tours
//	@Accept		json
//	@Produce	json
//	@Param		tour	body		domainTour.TourCreateRequest	true	"Tour creation request"
//	@Success	201		{object}	domainTour.Tour
//	@Failure	400		{object}	map[string]string
//	@Failure	401		{object}	map[string]string
//	@Failure	403		{object}	map[string]string
//	@Router		/tours [post]
//	@Security	CookieAuth
func (h *Handler) CreateTour(c *gin.Context) {
	var req domainTour.TourCreateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	t, err := h.tours.CreateTour(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTour godoc
//
//	@Summary	Update a tour
//	@Tags		tours
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Tour ID"
//	@Param		tour	body		domainTour.TourUpdateRequest	true	"Fields to update"
//	@Success	200		{object}	domainTour.Tour
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/tours/{id} [patch]
//	@Security	CookieAuth
func (h *Handler) UpdateTour(c *gin.Context) {
	var req domainTour.TourUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	t, err := h.tours.UpdateTour(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTour godoc
//
//	@Summary	Delete a tour
//	@Tags		tours
//	@Param		id	path	string	true	"Tour ID"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Router		/tours/{id} [delete]
//	@Security	CookieAuth
func (h *Handler) DeleteTour(c *gin.Context) {
	if err := h.tours.DeleteTour(c.Request.Context(), c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadTourImages godoc
//
//	@Summary		Upload tour images
//	@Description	Multipart upload of an "imageCover" file and up to three "images" files
//	@Tags			tours
//	@Accept			mpfd
//	@Produce		json
//	@Param			id			path		string	true	"Tour ID"
//	@Param			imageCover	formData	file	false	"Cover image"
//	@Param			images		formData	file	false	"Gallery images"
//	@Success		200			{object}	domainTour.Tour
//	@Failure		400			{object}	map[string]string
//	@Failure		404			{object}	map[string]string
//	@Router			/tours/{id}/images [put]
//	@Security		CookieAuth
func (h *Handler) UploadTourImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		middleware.AbortWithError(c, apperr.Validation("request must be multipart/form-data"))
		return
	}

	var cover []byte
	if files := form.File["imageCover"]; len(files) > 0 {
		if cover, err = h.readFile(files[0]); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
	}

	files := form.File["images"]
	if len(files) > maxGalleryImages {
		middleware.AbortWithError(c, apperr.Validation("a tour has at most 3 gallery images"))
		return
	}
	gallery := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := h.readFile(fh)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		gallery = append(gallery, data)
	}

	if len(cover) == 0 && len(gallery) == 0 {
		middleware.AbortWithError(c, apperr.Validation("no images were uploaded"))
		return
	}

	t, err := h.tours.UploadTourImages(c.Request.Context(), c.Param("id"), cover, gallery)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
