package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidechat/tidechat/internal/service"
)

// AuthHandler exposes the credential subsystem over HTTP.
type AuthHandler struct {
	auther service.Auther
	tokens *service.TokenManager
	logger *slog.Logger
}

func NewAuthHandler(auther service.Auther, tokens *service.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auther: auther,
		tokens: tokens,
		logger: logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auther.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSession(w, token)
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auther.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSession(w, token)
	writeJSON(w, http.StatusOK, user)
}

// Guest creates a throwaway time-limited account and signs it in.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	user, token, err := h.auther.Guest(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSession(w, token)
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Check returns the account bound to the current session.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProfilePic == "" {
		writeError(w, http.StatusBadRequest, "profile pic is required")
		return
	}

	updated, err := h.auther.UpdateProfilePic(r.Context(), user.ID, req.ProfilePic)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.Lifetime()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
