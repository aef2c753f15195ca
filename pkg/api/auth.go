package api

import (
	"net/http"
	"time"

	"bookstore/pkg/account"
	"bookstore/pkg/otel"
)

// loginRequest represents login credentials.
type loginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

// signupHandler registers a customer.
// @Summary Sign up
// @Description Registers a new customer account
// @Accept json
// @Produce json
// @Param account body account.CustomerInput true "Customer"
// @Success 201 {object} account.Profile
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /signup [post]
func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "signupHandler")
	defer span.End()

	var in account.CustomerInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	p, err := s.store.Signup(ctx, in)
	if err != nil {
		s.writeCommandError(w, r, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// loginHandler authenticates an account and sets the session cookie.
// @Summary Login
// @Description Authenticates by e-mail and PIN and sets session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200 {object} account.Profile
// @Failure 401 {object} errorResponse
// @Router /login [post]
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "email and pin are required")
		return
	}
	a, err := s.store.Signin(ctx, req.Email, req.PIN)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
		return
	}
	sid, err := s.sessions.Create(ctx, a.ID())
	if err != nil {
		s.log.Error(ctx, "create session", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "session error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, a.Profile())
}

// logoutHandler ends the current session.
// @Summary Logout
// @Success 204
// @Router /logout [post]
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "logoutHandler")
	defer span.End()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.sessions.Delete(ctx, c.Value); err != nil {
			s.log.Error(ctx, "delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
	w.WriteHeader(http.StatusNoContent)
}

// meHandler returns the signed-in account.
// @Summary Current account
// @Produce json
// @Success 200 {object} account.Profile
// @Security ApiKeyAuth
// @Router /me [get]
func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r.Context()).Profile())
}

// deleteAccountHandler removes an account.
// @Summary Delete account
// @Param email path string true "Account e-mail"
// @Success 204
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /accounts/{email} [delete]
func (s *Server) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteAccountHandler")
	defer span.End()

	if err := s.store.DeleteAccount(ctx, accountFrom(ctx), pathVar(r, "email")); err != nil {
		s.writeCommandError(w, r, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
