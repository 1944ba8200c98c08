package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/tokenstore"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

// LoginHandler handles POST /api/auth/login
func (h *APIHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), account.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, "Login failed")
		return
	}
	if err := h.tokens.Set(c, session.Tokens); err != nil {
		helpers.RespondError(c, "LoginHandler", err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, helpers.LoginResponse{Message: "Login successful", User: session.User})
	helpers.LogSuccess("LoginHandler", "user logged in", map[string]any{"user_id": session.User.ID})
}

// RegisterHandler handles POST /api/auth/register
func (h *APIHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	reg := account.Registration{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if strings.TrimSpace(req.Dob) != "" {
		dob, ok := models.ParseTime(req.Dob)
		if !ok {
			helpers.RespondError(c, "RegisterHandler", storefronterrors.Invalid("Invalid date of birth"), "")
			return
		}
		reg.Dob = dob
	}

	resp, err := h.accounts.Register(c.Request.Context(), reg)
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, "Registration failed")
		return
	}

	utils.RawJSON(c, resp.Status, resp.Body)
	helpers.LogSuccess("RegisterHandler", "account registered", map[string]any{"status": resp.Status})
}

// LogoutHandler handles POST /api/auth/logout. The cookie is cleared even
// when the backend call fails.
func (h *APIHandler) LogoutHandler(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), helpers.AccessToken(c)); err != nil {
		utils.Warn("LogoutHandler: backend logout failed", map[string]any{"error": err.Error()})
	}
	h.tokens.Clear(c)

	utils.JSONMessage(c, http.StatusOK, "Logged out successfully")
	helpers.LogSuccess("LogoutHandler", "session cleared", nil)
}

// MeHandler handles GET /api/auth/me
func (h *APIHandler) MeHandler(c *gin.Context) {
	token := helpers.AccessToken(c)
	if token == "" {
		utils.JSONMessage(c, http.StatusUnauthorized, helpers.MsgUnauthenticated)
		return
	}

	_, resp, err := h.accounts.Me(c.Request.Context(), token)
	if err != nil {
		h.fail(c, "MeHandler", err, "Authentication failed")
		return
	}

	utils.RawJSON(c, resp.Status, resp.Body)
}

// PublicAuthHandler relays one unauthenticated auth action, such as
// forgot-password, with its JSON body.
func (h *APIHandler) PublicAuthHandler(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			helpers.HandleBindError(c, "PublicAuthHandler", err)
			return
		}
		var body any
		if raw = bytes.TrimSpace(raw); len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				helpers.HandleBindError(c, "PublicAuthHandler", err)
				return
			}
		}

		resp, err := h.accounts.Forward(c.Request.Context(), action, body)
		if err != nil {
			helpers.RespondError(c, "PublicAuthHandler", err, "Request failed")
			return
		}

		utils.RawJSON(c, resp.Status, resp.Body)
		helpers.LogSuccess("PublicAuthHandler", "auth action forwarded", map[string]any{"action": action})
	}
}

// UpdateProfileHandler handles PUT /api/users/update-profile
func (h *APIHandler) UpdateProfileHandler(c *gin.Context) {
	var req helpers.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateProfileHandler", err)
		return
	}

	resp, err := h.accounts.UpdateProfile(c.Request.Context(), helpers.AccessToken(c), account.ProfileUpdate{
		Username: req.Username,
		FullName: req.FullName,
		Bio:      req.Bio,
	})
	if err != nil {
		h.fail(c, "UpdateProfileHandler", err, "Failed to update profile")
		return
	}

	utils.RawJSON(c, resp.Status, resp.Body)
	helpers.LogSuccess("UpdateProfileHandler", "profile updated", nil)
}

// RegisterTokenHandler handles POST /api/notifications/register-token. The
// user is identified by the access token's subject.
func (h *APIHandler) RegisterTokenHandler(c *gin.Context) {
	token := helpers.AccessToken(c)
	if token == "" {
		utils.JSONMessage(c, http.StatusUnauthorized, "You must be logged in to register for notifications")
		return
	}

	var req helpers.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterTokenHandler", err)
		return
	}
	if strings.TrimSpace(req.FCMToken) == "" {
		utils.JSONMessage(c, http.StatusBadRequest, "FCM token is required")
		return
	}

	claims, err := tokenstore.ParseClaims(token)
	if err != nil {
		h.tokens.Clear(c)
		utils.JSONError(c, http.StatusUnauthorized, err, helpers.MsgUnauthenticated)
		return
	}

	_, err = h.gateway.Fetch(c.Request.Context(), "", backend.Request{
		Method: http.MethodPost,
		Path:   "/notifications/register-token",
		Token:  token,
		Body: map[string]any{
			"userId":   claims.Subject,
			"fcmToken": req.FCMToken,
		},
	})
	if err != nil {
		h.fail(c, "RegisterTokenHandler", err, "An error occurred while registering FCM token")
		return
	}

	c.JSON(http.StatusOK, helpers.RegisterTokenResponse{Success: true, Message: "FCM token registered successfully"})
	helpers.LogSuccess("RegisterTokenHandler", "push token registered", map[string]any{"user_id": claims.Subject})
}
