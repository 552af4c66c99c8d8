package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/qbay/internal/auth"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/service"
)

// AccountHandler serves registration, login and the caller's own profile.
//
//   - HandleRegister → POST /api/register
//   - HandleLogin    → POST /api/login
//   - HandleLogout   → POST /api/logout
//   - HandleMe       → GET  /api/me   (RequireAuth)
//   - HandleUpdateMe → PUT  /api/me   (RequireAuth)
type AccountHandler struct {
	accounts     *service.AccountService
	tokens       *auth.TokenService
	secureCookie bool
	logger       *slog.Logger
}

// NewAccountHandler creates an AccountHandler. secureCookie sets the Secure
// attribute on the token cookie and should be true behind HTTPS.
func NewAccountHandler(accounts *service.AccountService, tokens *auth.TokenService, secureCookie bool, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:     accounts,
		tokens:       tokens,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn"` // seconds
	User      *model.User `json:"user"`
}

// profileRequest uses pointers so an omitted field is left unchanged and an
// explicit "" is passed to the service (which may reject it).
type profileRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	ShippingAddress *string `json:"shippingAddress"`
	PostalCode      *string `json:"postalCode"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/register
// REQUEST BODY: {"name": "user0", "email": "test0@test.com", "password": "Abc!23"}
// RESPONSE: 201 with the new user (the password hash is never serialised).
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeBadRequest(w, "request body must be a JSON object with name, email and password")
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin checks credentials and issues an access token.
//
// HTTP: POST /api/login
//
// The token is returned in the body for API clients and also set as an
// HttpOnly "token" cookie for browsers. Both are accepted by RequireAuth.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeBadRequest(w, "request body must be a JSON object with email and password")
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("token generation failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	ttl := int(h.tokens.TTL().Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   ttl,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresIn: ttl, User: user})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /api/logout
//
// Tokens are stateless, so an already-issued token stays valid until it
// expires; logging out only removes the browser's copy.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateMe changes the authenticated user's profile.
//
// HTTP: PUT /api/me
// REQUEST BODY: any subset of username, email, shippingAddress, postalCode.
func (h *AccountHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid profile JSON", slog.String("error", err.Error()))
		writeBadRequest(w, "request body must be a JSON object of profile fields")
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Username:        req.Username,
		Email:           req.Email,
		ShippingAddress: req.ShippingAddress,
		PostalCode:      req.PostalCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
