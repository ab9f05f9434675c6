package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/cryptpass/internal/auth"
	"github.com/sakif/cryptpass/internal/service"
)

// AuthHandler serves registration, login and session endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create a user with a crypt(3) hash
//   - HandleLogin    → verify credentials, set the session cookie
//   - HandleLogout   → clear the session cookie
//   - HandleMe       → return the logged-in user's profile
//
// The handler only parses requests and maps results to HTTP. Every rule
// about credentials lives in service.AuthService.
type AuthHandler struct {
	auth     *service.AuthService
	tokens   *auth.TokenService
	validate *validator.Validate
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookies sets the Secure flag
// on the session cookie and should be true anywhere TLS terminates in front
// of the server.
func NewAuthHandler(svc *service.AuthService, tokens *auth.TokenService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     svc,
		tokens:   tokens,
		validate: newValidator(),
		secure:   secureCookies,
		logger:   logger,
	}
}

// credentialsRequest is the body of both /auth/register and /auth/login.
type credentialsRequest struct {
	Identity string `json:"identity" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// HandleRegister creates a new user.
//
// HTTP: POST /auth/register {"identity": "...", "password": "..."}
// 201 with the user, 400 on validation errors, 409 if the identity exists.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Identity, req.Password)
	if err != nil {
		h.logger.Warn("register failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /auth/login {"identity": "...", "password": "..."}
//
// Unknown identity, wrong password and ambiguous identity all produce the
// same 401 body: {"error":"unauthorized","message":"invalid credentials"}.
//
// The JWT goes into an HttpOnly cookie: JavaScript cannot read it, so an
// XSS bug cannot steal the session.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Identity, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// Sessions are stateless JWTs, so "logout" just deletes the cookie. The
// token stays valid until it expires, but the browser no longer sends it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Only reachable if the route is mounted without RequireAuth.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", userID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
