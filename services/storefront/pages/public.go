package pages

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"quickbidz-storefront/internal/account"
	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/flash"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/pagination"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

type homeView struct {
	Auctions []models.Auction
}

// Home lists a handful of live auctions. A backend failure still renders
// the page, just without listings.
func (h *PageHandler) Home(c *gin.Context) {
	page, err := h.catalog.Auctions(c.Request.Context(), helpers.AccessToken(c),
		url.Values{"status": {string(models.AuctionActive)}},
		pagination.Params{Page: 1, Limit: 6})
	if err != nil {
		utils.Warn("Home: failed to load featured auctions", map[string]any{"error": err.Error()})
	}
	h.render(c, http.StatusOK, "home.tmpl", "QuickBidz", homeView{Auctions: page.Items})
}

type staticView struct {
	Heading    string
	Paragraphs []string
}

// Static pages and their copy.
var staticPages = map[string]staticView{
	"about": {
		Heading: "About QuickBidz",
		Paragraphs: []string{
			"QuickBidz is a marketplace for time-boxed auctions. Sellers list an item with a starting price and an end time, and buyers bid until the clock runs out.",
			"The highest bid standing when an auction ends wins the item.",
		},
	},
	"contact": {
		Heading: "Contact us",
		Paragraphs: []string{
			"Questions about a listing are best asked on the auction page itself, where the seller can answer them.",
			"For account or payment issues write to support@quickbidz.com.",
		},
	},
	"terms": {
		Heading: "Terms of service",
		Paragraphs: []string{
			"A bid is a binding offer to buy the item at the bid amount if it wins the auction.",
			"Sellers must describe items accurately and ship them within the stated return policy.",
			"Accounts used to manipulate prices may be suspended.",
		},
	},
	"privacy": {
		Heading: "Privacy policy",
		Paragraphs: []string{
			"We store the details you give us at sign-up and the bids, comments and auctions you create.",
			"Session tokens are kept in an encrypted, http-only cookie and are never readable by scripts on the page.",
		},
	},
}

// Static serves one of the informational pages.
func (h *PageHandler) Static(name string) gin.HandlerFunc {
	view := staticPages[name]
	return func(c *gin.Context) {
		h.render(c, http.StatusOK, "static.tmpl", view.Heading, view)
	}
}

type loginView struct {
	Email string
	From  string
}

func (h *PageHandler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.tmpl", "Login", loginView{From: c.Query("from")})
}

// Login signs the user in and redirects to the page they came from.
func (h *PageHandler) Login(c *gin.Context) {
	var form helpers.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderWithError(c, http.StatusBadRequest, "login.tmpl", "Login", loginView{}, "Please fill all required fields")
		return
	}
	view := loginView{Email: form.Email, From: form.From}

	session, err := h.accounts.Login(c.Request.Context(), account.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		status, _ := helpers.MapErrorToHTTP(err)
		message := helpers.ToastMessage(err)
		if status == http.StatusUnauthorized {
			message = "Invalid email or password"
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				message = apiErr.Message
			}
		}
		h.renderWithError(c, status, "login.tmpl", "Login", view, message)
		return
	}
	if err := h.tokens.Set(c, session.Tokens); err != nil {
		h.renderWithError(c, http.StatusInternalServerError, "login.tmpl", "Login", view, helpers.ToastServerError)
		return
	}

	helpers.LogSuccess("Login", "user logged in", map[string]any{"user_id": session.User.ID})
	h.redirectWith(c, flash.Success, "Login successful!", SafeRedirect(form.From))
}

type signupView struct {
	Form helpers.SignupForm
}

func (h *PageHandler) SignupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.tmpl", "Sign up", signupView{})
}

// Signup creates an account. The user verifies their email before the
// first login, so no session is started here.
func (h *PageHandler) Signup(c *gin.Context) {
	var form helpers.SignupForm
	h.bindForm(c, "Signup", &form)
	view := signupView{Form: form}
	view.Form.Password = ""

	reg := account.Registration{
		Email:     form.Email,
		Username:  form.Username,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	}
	if strings.TrimSpace(form.Dob) != "" {
		dob, ok := models.ParseTime(form.Dob)
		if !ok {
			h.renderWithError(c, http.StatusBadRequest, "signup.tmpl", "Sign up", view, "Invalid date of birth")
			return
		}
		reg.Dob = dob
	}

	if _, err := h.accounts.Register(c.Request.Context(), reg); err != nil {
		status, _ := helpers.MapErrorToHTTP(err)
		h.renderWithError(c, status, "signup.tmpl", "Sign up", view, helpers.ToastMessage(err))
		return
	}

	helpers.LogSuccess("Signup", "account registered", map[string]any{"username": strings.TrimSpace(form.Username)})
	h.redirectWith(c, flash.Success, "Registration successful! Please check your email to verify your account.", "/login")
}

// Logout always clears the session cookie, whatever the backend says.
func (h *PageHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), helpers.AccessToken(c)); err != nil {
		utils.Warn("Logout: backend logout failed", map[string]any{"error": err.Error()})
	}
	h.tokens.Clear(c)
	h.redirectWith(c, flash.Success, "Logged out successfully", "/login")
}

type emailView struct {
	Email string
}

func (h *PageHandler) ForgotPasswordPage(c *gin.Context) {
	h.render(c, http.StatusOK, "forgot_password.tmpl", "Forgot password", emailView{})
}

func (h *PageHandler) ForgotPassword(c *gin.Context) {
	var form helpers.EmailForm
	h.bindForm(c, "ForgotPassword", &form)
	email := strings.TrimSpace(form.Email)
	if email == "" {
		h.renderWithError(c, http.StatusBadRequest, "forgot_password.tmpl", "Forgot password", emailView{}, "Email is required")
		return
	}

	if _, err := h.accounts.Forward(c.Request.Context(), "forgot-password", map[string]any{"email": email}); err != nil {
		status, _ := helpers.MapErrorToHTTP(err)
		h.renderWithError(c, status, "forgot_password.tmpl", "Forgot password", emailView{Email: email}, helpers.ToastMessage(err))
		return
	}
	h.redirectWith(c, flash.Success, "If an account exists for that email, a reset link is on its way.", "/forgot-password")
}

type resetView struct {
	Token string
}

func (h *PageHandler) ResetPasswordPage(c *gin.Context) {
	h.render(c, http.StatusOK, "reset_password.tmpl", "Reset password", resetView{Token: c.Query("token")})
}

func (h *PageHandler) ResetPassword(c *gin.Context) {
	var form helpers.TokenForm
	h.bindForm(c, "ResetPassword", &form)
	view := resetView{Token: form.Token}
	if form.Token == "" || form.Password == "" {
		h.renderWithError(c, http.StatusBadRequest, "reset_password.tmpl", "Reset password", view, "Please fill all required fields")
		return
	}

	_, err := h.accounts.Forward(c.Request.Context(), "reset-password", map[string]any{
		"token":    form.Token,
		"password": form.Password,
	})
	if err != nil {
		utils.Warn("ResetPassword: backend rejected reset", map[string]any{"error": err.Error()})
		h.renderWithError(c, http.StatusBadRequest, "reset_password.tmpl", "Reset password", view, "Failed to reset password. The link may have expired.")
		return
	}
	h.redirectWith(c, flash.Success, "Password has been reset successfully", "/login")
}

type tokenResultView struct {
	Heading string
	Success bool
	Message string
}

// TokenAction serves the email-link pages (verify-email, activate-account)
// that confirm a token from the query string.
func (h *PageHandler) TokenAction(action, heading, successMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			h.render(c, http.StatusBadRequest, "token_result.tmpl", heading, tokenResultView{
				Heading: heading,
				Message: "The link is missing its token.",
			})
			return
		}

		resp, err := h.accounts.Forward(c.Request.Context(), action, map[string]any{"token": token})
		if err != nil {
			status, _ := helpers.MapErrorToHTTP(err)
			h.render(c, status, "token_result.tmpl", heading, tokenResultView{
				Heading: heading,
				Message: helpers.ToastMessage(err),
			})
			return
		}

		message := successMessage
		if body, err := backend.DecodeJSON[struct {
			Message string `json:"message"`
		}](resp); err == nil && body.Message != "" {
			message = body.Message
		}
		h.render(c, http.StatusOK, "token_result.tmpl", heading, tokenResultView{
			Heading: heading,
			Success: true,
			Message: message,
		})
	}
}

func (h *PageHandler) ResendVerificationPage(c *gin.Context) {
	h.render(c, http.StatusOK, "resend_verification.tmpl", "Resend verification", emailView{Email: c.Query("email")})
}

func (h *PageHandler) ResendVerification(c *gin.Context) {
	var form helpers.EmailForm
	h.bindForm(c, "ResendVerification", &form)
	email := strings.TrimSpace(form.Email)
	if email == "" {
		h.renderWithError(c, http.StatusBadRequest, "resend_verification.tmpl", "Resend verification", emailView{}, "Email is required")
		return
	}

	if _, err := h.accounts.Forward(c.Request.Context(), "resend-verification", map[string]any{"email": email}); err != nil {
		status, _ := helpers.MapErrorToHTTP(err)
		h.renderWithError(c, status, "resend_verification.tmpl", "Resend verification", emailView{Email: email}, helpers.ToastMessage(err))
		return
	}
	h.redirectWith(c, flash.Success, "Verification email sent. Please check your inbox.", "/login")
}
