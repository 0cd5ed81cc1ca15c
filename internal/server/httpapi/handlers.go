package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wardenlabs/warden/internal/common"
	"github.com/wardenlabs/warden/internal/server/models"
	"github.com/wardenlabs/warden/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// decode unmarshals the request body into dst and checks required fields.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("malformed request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return errors.New("missing required fields")
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "warden", "status": "running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Username, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, user, err := s.auth.Login(r.Context(), req.Identifier, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	// The CSRF token is bound to the authenticated identity and must
	// accompany subsequent state-changing requests.
	w.Header().Set("X-CSRF-Token", s.csrf.Generate(user.ID))
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.auth.Logout(r.Context(), req.RefreshToken, clientIP(r), r.UserAgent()); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "successfully logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       claims.UserID,
		"email":    claims.Email,
		"username": claims.Username,
	})
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "access granted",
		"user_id": claims.UserID,
	})
}

// writeAuthError translates service errors into status codes. Everything
// unrecognized collapses to a generic 500 so internals never leak.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *services.AccountLockedError
	switch {
	case errors.Is(err, common.ErrInvalidEmail),
		errors.Is(err, common.ErrInvalidUsername),
		errors.Is(err, common.ErrUserExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrAccountDeactivated):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &locked):
		writeError(w, http.StatusLocked, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
