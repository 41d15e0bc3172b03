package api

import (
	"errors"
	"net/http"

	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/apperr"
	authService "tourbook/internal/application/auth"
	"tourbook/internal/application/query"
	"tourbook/internal/application/token"
	tourService "tourbook/internal/application/tour"
	"tourbook/internal/domain/auth"
	domainQuery "tourbook/internal/domain/query"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	_ "tourbook/docs" // swagger docs
)

// TokenService verifies tokens and publishes the access verification keys
type TokenService interface {
	Verify(kind token.Kind, raw string) token.Result
	JWKS() (token.JWKSet, error)
}

// LoginRecorder counts login attempts by result
type LoginRecorder interface {
	LoginAttempt(result string)
}

// errMissingResource means an ownership gate was not mounted in front of the handler
var errMissingResource = apperr.Internal(errors.New("route has no ownership gate"))

type noopRecorder struct{}

func (noopRecorder) LoginAttempt(string) {}

// Dependencies wires the handler. Metrics is optional.
type Dependencies struct {
	Auth           *authService.Service
	Tours          *tourService.Service
	Authenticator  *middleware.Authenticator
	Cookies        *middleware.Cookies
	Tokens         TokenService
	Metrics        LoginRecorder
	Limits         query.Limits
	MaxUploadBytes int64
}

// Handler handles HTTP requests for the tourbook API
type Handler struct {
	auth      *authService.Service
	tours     *tourService.Service
	authn     *middleware.Authenticator
	cookies   *middleware.Cookies
	tokens    TokenService
	metrics   LoginRecorder
	limits    query.Limits
	maxUpload int64
}

// NewHandler creates a new API handler
func NewHandler(deps Dependencies) *Handler {
	useJSONFieldNames()
	if deps.Metrics == nil {
		deps.Metrics = noopRecorder{}
	}
	if deps.Limits.Default == 0 {
		deps.Limits = query.DefaultLimits
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 5 << 20
	}
	return &Handler{
		auth:      deps.Auth,
		tours:     deps.Tours,
		authn:     deps.Authenticator,
		cookies:   deps.Cookies,
		tokens:    deps.Tokens,
		metrics:   deps.Metrics,
		limits:    deps.Limits,
		maxUpload: deps.MaxUploadBytes,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	staff := []auth.Role{auth.RoleAdmin, auth.RoleLeadGuide}

	api := r.Group("/api/v1")
	api.Use(h.authn.Middleware())
	{
		api.GET("/health", h.Health)
		api.GET("/.well-known/jwks.json", h.JWKS)

		users := api.Group("/users")
		{
			users.POST("/signup", h.Signup)
			users.POST("/login", h.Login)
			users.POST("/logout", h.Logout)

			users.GET("/me", middleware.Protect(), h.Me)
			users.GET("/me/sessions", middleware.Protect(), h.MySessions)
			users.PATCH("/updateMe", middleware.Protect(), h.UpdateMe)
			users.PATCH("/updateMyPassword", middleware.Protect(), h.UpdateMyPassword)
			users.DELETE("/deleteMe", middleware.Protect(), h.DeleteMe)

			admin := middleware.Protect(middleware.Roles(auth.RoleAdmin))
			users.GET("", admin, h.ListUsers)
			users.POST("", admin, h.CreateUser)
			users.GET("/:id", admin, h.GetUser)
			users.PATCH("/:id", admin, h.UpdateUser)
			users.DELETE("/:id", admin, h.DeleteUser)
		}

		tours := api.Group("/tours")
		{
			tours.GET("", h.ListTours)
			tours.GET("/:id", h.GetTour)
			tours.POST("", middleware.Protect(middleware.Roles(staff...)), h.CreateTour)
			tours.PATCH("/:id", middleware.Protect(middleware.Roles(staff...)), h.UpdateTour)
			tours.DELETE("/:id", middleware.Protect(middleware.Roles(staff...)), h.DeleteTour)
			tours.PUT("/:id/images", middleware.Protect(middleware.Roles(staff...)), h.UploadTourImages)

			// nested reviews are scoped to the tour in the path
			tours.GET("/:id/reviews", h.ListTourReviews)
			tours.POST("/:id/reviews", middleware.Protect(middleware.Roles(auth.RoleUser)), h.CreateTourReview)
		}

		reviews := api.Group("/reviews")
		{
			reviews.GET("", h.ListReviews)
			reviews.POST("", middleware.Protect(middleware.Roles(auth.RoleUser)), h.CreateReview)
			reviews.GET("/:id", middleware.Protect(), h.GetReview)
			reviews.PATCH("/:id", middleware.Protect(
				middleware.Owner("id", "reviews", h.tours.GetReview),
			), h.UpdateReview)
			reviews.DELETE("/:id", middleware.Protect(
				middleware.Owner("id", "reviews", h.tours.GetReview, auth.RoleAdmin),
			), h.DeleteReview)
		}

		bookings := api.Group("/bookings")
		{
			bookings.GET("/checkout-session/:tourId", middleware.Protect(), h.CheckoutSession)
			bookings.GET("/my", middleware.Protect(), h.MyBookings)
			bookings.GET("", middleware.Protect(middleware.Roles(staff...)), h.ListBookings)
			bookings.POST("", middleware.Protect(middleware.Roles(staff...)), h.CreateBooking)
			bookings.GET("/:id", middleware.Protect(
				middleware.Owner("id", "bookings", h.tours.GetBooking, staff...),
			), h.GetBooking)
			bookings.PATCH("/:id", middleware.Protect(
				middleware.Owner("id", "bookings", h.tours.GetBooking, staff...),
			), h.UpdateBooking)
			bookings.DELETE("/:id", middleware.Protect(middleware.Roles(staff...)), h.DeleteBooking)
		}

		api.POST("/webhook-checkout", h.WebhookCheckout)
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Health godoc
//
//	@Summary	Health check
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// JWKS godoc
//
//	@Summary		Access token verification keys
//	@Description	Public keys that verify access tokens, as a JSON Web Key Set
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	token.JWKSet
//	@Failure		500	{object}	map[string]string
//	@Router			/.well-known/jwks.json [get]
func (h *Handler) JWKS(c *gin.Context) {
	set, err := h.tokens.JWKS()
	if err != nil {
		middleware.AbortWithError(c, apperr.Internal(err))
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, set)
}

// translate turns the query string into a list query for schema
func (h *Handler) translate(c *gin.Context, schema *query.Schema, base ...domainQuery.Condition) (domainQuery.Spec, bool) {
	spec, err := query.Translate(schema, c.Request.URL.Query(), h.limits, base...)
	if err != nil {
		middleware.AbortWithError(c, err)
		return domainQuery.Spec{}, false
	}
	return spec, true
}

// writeList writes a page of results, projected to the requested fields
func writeList[T any](c *gin.Context, spec domainQuery.Spec, items []T) {
	data, err := projectAll(items, spec.Fields)
	if err != nil {
		middleware.AbortWithError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": len(items),
		"page":    spec.Page,
		"data":    data,
	})
}

// identity returns the caller; routes using it are behind Protect
func identity(c *gin.Context) *middleware.Identity {
	return middleware.CurrentIdentity(c)
}

func sessionMeta(c *gin.Context) auth.SessionMeta {
	return auth.SessionMeta{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}
