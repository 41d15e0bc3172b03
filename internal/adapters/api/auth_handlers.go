package api

import (
	"net/http"
	"strings"

	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/apperr"
	"tourbook/internal/application/token"
	"tourbook/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Signup godoc
//
//	@Summary		Create an account
//	@Description	Creates a user with role "user", opens a session and sets both auth cookies
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			account	body		auth.SignupRequest	true	"Signup request"
//	@Success		201		{object}	auth.User
//	@Failure		400		{object}	map[string]string
//	@Router			/users/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req auth.SignupRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	login, err := h.auth.Signup(c.Request.Context(), req, sessionMeta(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.cookies.SetAuth(c, login.Tokens.Access, login.Tokens.Refresh)
	c.JSON(http.StatusCreated, login.User)
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verifies credentials, opens a session and sets both auth cookies
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		auth.LoginRequest	true	"Credentials"
//	@Success		200			{object}	auth.User
//	@Failure		400			{object}	map[string]string
//	@Failure		401			{object}	map[string]string
//	@Router			/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	login, err := h.auth.Login(c.Request.Context(), req, sessionMeta(c))
	if err != nil {
		h.metrics.LoginAttempt(loginResult(err))
		middleware.AbortWithError(c, err)
		return
	}
	h.metrics.LoginAttempt("success")

	h.cookies.SetAuth(c, login.Tokens.Access, login.Tokens.Refresh)
	c.JSON(http.StatusOK, login.User)
}

func loginResult(err error) string {
	if apperr.Is(err, apperr.KindUnauthenticated) {
		return "rejected"
	}
	return "error"
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Invalidates the current session and clears both auth cookies
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/users/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	sessionID := ""
	if id := middleware.CurrentIdentity(c); id != nil {
		sessionID = id.SessionID
	} else if refresh, err := c.Cookie(middleware.RefreshCookie); err == nil {
		// an expired access token must not keep the session alive
		if res := h.tokens.Verify(token.Refresh, refresh); res.Valid {
			sessionID = res.Claims.SessionID
		}
	}

	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to invalidate session on logout")
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Me godoc
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	auth.User
//	@Failure	401	{object}	map[string]string
//	@Router		/users/me [get]
//	@Security	CookieAuth
func (h *Handler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), identity(c).User.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// MySessions godoc
//
//	@Summary	Sessions of the current user
//	@Tags		auth
//	@Produce	json
//	@Success	200	{array}		auth.Session
//	@Failure	401	{object}	map[string]string
//	@Router		/users/me/sessions [get]
//	@Security	CookieAuth
func (h *Handler) MySessions(c *gin.Context) {
	sessions, err := h.auth.Sessions(c.Request.Context(), identity(c).User.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// UpdateMe godoc
//
//	@Summary		Update the current user
//	@Description	Updates name and email. A multipart request may carry a "photo" file.
//	@Tags			auth
//	@Accept			json,mpfd
//	@Produce		json
//	@Param			user	body		auth.UserUpdateRequest	false	"Fields to update"
//	@Param			photo	formData	file					false	"Profile photo"
//	@Success		200		{object}	auth.User
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Router			/users/updateMe [patch]
//	@Security		CookieAuth
func (h *Handler) UpdateMe(c *gin.Context) {
	var (
		req   updateMeRequest
		photo []byte
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if name, ok := c.GetPostForm("name"); ok {
			req.Name = &name
		}
		if email, ok := c.GetPostForm("email"); ok {
			req.Email = &email
		}
		req.Password = c.PostForm("password")
		if err := validate(&req); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		var err error
		if photo, err = h.formFile(c, "photo"); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
	} else if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	if req.Password != "" {
		middleware.AbortWithError(c, apperr.Validation("this route is not for password updates, please use /updateMyPassword"))
		return
	}

	user, err := h.auth.UpdateMe(c.Request.Context(), identity(c).User.ID, req.UserUpdateRequest, photo)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateMeRequest catches password fields sent to the profile route
type updateMeRequest struct {
	auth.UserUpdateRequest
	Password string `json:"password"`
}

// UpdateMyPassword godoc
//
//	@Summary		Change the current user's password
//	@Description	Verifies the current password, revokes all sessions and opens a new one
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			passwords	body		auth.UpdatePasswordRequest	true	"Current and new password"
//	@Success		200			{object}	auth.User
//	@Failure		400			{object}	map[string]string
//	@Failure		401			{object}	map[string]string
//	@Router			/users/updateMyPassword [patch]
//	@Security		CookieAuth
func (h *Handler) UpdateMyPassword(c *gin.Context) {
	var req auth.UpdatePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	login, err := h.auth.UpdatePassword(c.Request.Context(), identity(c).User.ID, req, sessionMeta(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.cookies.SetAuth(c, login.Tokens.Access, login.Tokens.Refresh)
	c.JSON(http.StatusOK, login.User)
}

// DeleteMe godoc
//
//	@Summary		Deactivate the current user
//	@Description	Marks the account inactive and revokes its sessions
//	@Tags			auth
//	@Success		204
//	@Failure		401	{object}	map[string]string
//	@Router			/users/deleteMe [delete]
//	@Security		CookieAuth
func (h *Handler) DeleteMe(c *gin.Context) {
	if err := h.auth.DeleteMe(c.Request.Context(), identity(c).User.ID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	h.cookies.Clear(c)
	c.Status(http.StatusNoContent)
}
