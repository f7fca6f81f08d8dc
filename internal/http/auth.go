package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/repository"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to register user")
		return
	}
	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusConflict, "CONFLICT", "Email is already registered")
			return
		}
		s.respondInternal(w, r, err, "Failed to register user")
		return
	}

	s.respondSession(w, r, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.repo.Users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.respondInternal(w, r, err, "Failed to log in")
		return
	}
	if err != nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		s.respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	s.respondSession(w, r, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.repo.Users.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
			return
		}
		s.respondInternal(w, r, err, "Failed to load user")
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, user domain.User) {
	token, expires, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to issue token")
		return
	}
	s.respondJSON(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: expires.UTC(),
		User:      toUserResponse(user),
	})
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}
