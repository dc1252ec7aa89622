package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/clinicshop/storefront/internal/backend"
	"go.uber.org/zap"
)

type Authenticator interface {
	SignIn(ctx context.Context, creds backend.Credentials) (*backend.AuthSession, error)
	SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.AuthSession, error)
}

type AuthHandler struct {
	auth         Authenticator
	timeout      time.Duration
	cookieSecure bool
	log          *zap.Logger
}

func NewAuthHandler(auth Authenticator, timeout time.Duration, cookieSecure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		timeout:      timeout,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

type AuthResponseDTO struct {
	Customer backend.Customer `json:"customer"`
}

// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var creds backend.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "email and password are required",
			Code:   "invalid_request",
			Fields: missingFields(map[string]string{"email": creds.Email, "password": creds.Password}),
		})
		return
	}

	session, err := h.auth.SignIn(ctx, creds)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	h.setSession(w, session)
	respondJSON(w, http.StatusOK, AuthResponseDTO{Customer: session.Customer})
}

// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req backend.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if fields := missingFields(map[string]string{
		"firstName": req.FirstName,
		"lastName":  req.LastName,
		"email":     req.Email,
		"password":  req.Password,
	}); len(fields) > 0 {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "missing required fields",
			Code:   "invalid_request",
			Fields: fields,
		})
		return
	}

	session, err := h.auth.SignUp(ctx, req)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	h.setSession(w, session)
	respondJSON(w, http.StatusCreated, AuthResponseDTO{Customer: session.Customer})
}

// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, session *backend.AuthSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    session.BearerToken(),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// respondAuthError keeps wrong credentials from looking like an expired
// session: a 401 here must not redirect to the page the user is already on.
func (h *AuthHandler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if apiErr, ok := asAPIError(err); ok && apiErr.StatusCode == http.StatusUnauthorized {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", messageOr(err, "invalid email or password"))
		return
	}
	handleBackendError(w, r, h.log, err)
}

func missingFields(values map[string]string) map[string]string {
	fields := make(map[string]string)
	for k, v := range values {
		if strings.TrimSpace(v) == "" {
			fields[k] = "required"
		}
	}
	return fields
}
