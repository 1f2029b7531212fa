package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/middleware"
)

type AuthHandler struct {
	gw           Gateway
	screens      *Screens
	render       *Renderer
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(gw Gateway, screens *Screens, render *Renderer, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{gw: gw, screens: screens, render: render, cookieSecure: cookieSecure, logger: logger}
}

type loginPage struct {
	Title  string
	Email  string
	Error  string
	Notice string
}

type signupPage struct {
	Title  string
	Form   signupForm
	Errors map[string]string
	Error  string
}

type resetPage struct {
	Title string
	Email string
	Error string
	Sent  bool
}

type resetConfirmPage struct {
	Title  string
	Token  string
	Errors map[string]string
	Error  string
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	p := loginPage{Title: "Sign in"}
	if r.URL.Query().Get("reset") == "1" {
		p.Notice = "Your password was changed. Please sign in."
	}
	h.render.render(w, "login.html", p)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var f loginForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	p := loginPage{Title: "Sign in", Email: f.Email}
	if errs := validateForm(&f); errs != nil {
		p.Error = "Enter your email and password."
		h.render.page(w, http.StatusBadRequest, "login.html", p)
		return
	}

	sess, err := h.gw.SignIn(r.Context(), f.Email, f.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		p.Error = "Invalid email or password."
		h.render.page(w, http.StatusUnauthorized, "login.html", p)
		return
	}
	if err != nil {
		h.logger.Error("sign in", "error", err)
		p.Error = "Something went wrong. Please try again."
		h.render.page(w, http.StatusInternalServerError, "login.html", p)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, "signup.html", signupPage{Title: "Create an account"})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var f signupForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	p := signupPage{Title: "Create an account", Form: f}
	p.Form.Password, p.Form.ConfirmPassword = "", ""
	if errs := validateForm(&f); errs != nil {
		p.Errors = errs
		h.render.page(w, http.StatusBadRequest, "signup.html", p)
		return
	}

	sess, err := h.gw.SignUp(r.Context(), gateway.SignUpParams{
		Email:         f.Email,
		Password:      f.Password,
		FullName:      f.FullName,
		ContactNumber: f.ContactNumber,
	})
	switch {
	case errors.Is(err, gateway.ErrEmailTaken):
		p.Errors = map[string]string{"email": "An account with this email already exists."}
		h.render.page(w, http.StatusConflict, "signup.html", p)
		return
	case errors.Is(err, auth.ErrWeakPassword):
		p.Errors = map[string]string{"password": "Use at least 8 characters with an uppercase letter, a lowercase letter and a number."}
		h.render.page(w, http.StatusBadRequest, "signup.html", p)
		return
	case err != nil:
		h.logger.Error("sign up", "error", err)
		p.Error = "Something went wrong. Please try again."
		h.render.page(w, statusFor(err), "signup.html", p)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.gw.SignOut(r.Context(), cookie.Value); err != nil {
			h.logger.Error("sign out", "error", err)
		}
		h.screens.Forget(cookie.Value)
	}
	h.clearSessionCookie(w)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) ResetPage(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, "reset.html", resetPage{Title: "Reset password"})
}

// ResetRequest always reports success for well-formed addresses so that
// registered emails cannot be discovered.
func (h *AuthHandler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	var f resetRequestForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	p := resetPage{Title: "Reset password", Email: f.Email}
	if errs := validateForm(&f); errs != nil {
		p.Error = "Enter a valid email address."
		h.render.page(w, http.StatusBadRequest, "reset.html", p)
		return
	}

	err := h.gw.RequestPasswordReset(r.Context(), f.Email)
	if errors.Is(err, gateway.ErrResetUnavailable) {
		p.Error = "Password reset is not available. Contact your administrator."
		h.render.page(w, http.StatusServiceUnavailable, "reset.html", p)
		return
	}
	if err != nil {
		h.logger.Error("request password reset", "error", err)
	}
	p.Sent = true
	h.render.render(w, "reset.html", p)
}

func (h *AuthHandler) ResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, "reset_confirm.html", resetConfirmPage{
		Title: "Choose a new password",
		Token: r.URL.Query().Get("token"),
	})
}

func (h *AuthHandler) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	var f resetConfirmForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	p := resetConfirmPage{Title: "Choose a new password", Token: f.Token}
	if errs := validateForm(&f); errs != nil {
		p.Errors = errs
		if _, ok := errs["token"]; ok {
			p.Error = "This reset link is invalid or has expired."
		}
		h.render.page(w, http.StatusBadRequest, "reset_confirm.html", p)
		return
	}

	err := h.gw.ResetPassword(r.Context(), f.Token, f.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		p.Error = "This reset link is invalid or has expired."
		h.render.page(w, http.StatusBadRequest, "reset_confirm.html", p)
		return
	case errors.Is(err, auth.ErrWeakPassword):
		p.Errors = map[string]string{"password": "Use at least 8 characters with an uppercase letter, a lowercase letter and a number."}
		h.render.page(w, http.StatusBadRequest, "reset_confirm.html", p)
		return
	case err != nil:
		h.logger.Error("reset password", "error", err)
		p.Error = "Something went wrong. Please try again."
		h.render.page(w, statusFor(err), "reset_confirm.html", p)
		return
	}
	http.Redirect(w, r, "/login?reset=1", http.StatusSeeOther)
}
