package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"snowbasin-backend/internal/models"
	"snowbasin-backend/internal/services"
	"snowbasin-backend/pkg/httputil"
)

// AuthHandler handles authentication related HTTP requests.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// HandleSignup handles POST /v1/auth/signup.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserAlreadyExists):
			httputil.RespondError(w, http.StatusConflict, err.Error())
		default:
			log.Printf("[AuthHandler] Signup failed: %v", err)
			httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.AuthResponse{
		AccessToken: token,
		User:        models.UserResponse{ID: user.ID, Email: user.Email},
	})
}

// HandleLogin handles POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("[AuthHandler] Login failed: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		User:        models.UserResponse{ID: user.ID, Email: user.Email},
	})
}
