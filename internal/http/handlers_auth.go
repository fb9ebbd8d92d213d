package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/guhrizzo/my-wallet/internal/auth"
	"github.com/guhrizzo/my-wallet/internal/log"
	"github.com/guhrizzo/my-wallet/internal/storage"
)

const sessionCookieName = "wallet_session"

// msgBadCredentials is deliberately identical for unknown email and wrong
// password.
const msgBadCredentials = "E-mail ou senha incorretos."

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) sessionClaims(r *http.Request) (*auth.Claims, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, err
	}
	return s.tokens.Verify(cookie.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de requisição inválido.")
		return
	}

	email := sanitizeInput(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "E-mail inválido.")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "A senha deve ter pelo menos 8 caracteres.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.events.LogError(r.Context(), "Password hash failed", err, log.ComponentAuth, log.OpRegister, log.NewFields())
		writeError(w, http.StatusInternalServerError, "Erro ao criar conta.")
		return
	}

	user, err := s.users.CreateUser(r.Context(), email, hash)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		writeError(w, http.StatusConflict, "E-mail já cadastrado.")
		return
	}
	if err != nil {
		s.events.LogError(r.Context(), "User creation failed", err, log.ComponentAuth, log.OpRegister, log.NewFields())
		writeError(w, http.StatusInternalServerError, "Erro ao criar conta.")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.events.LogError(r.Context(), "Token issue failed", err, log.ComponentAuth, log.OpRegister,
			log.NewFields().WithOwner(user.ID))
		writeError(w, http.StatusInternalServerError, "Erro ao criar sessão.")
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": userResponse{ID: user.ID, Email: user.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de requisição inválido.")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), sanitizeInput(req.Email))
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.events.LogError(r.Context(), "Token issue failed", err, log.ComponentAuth, log.OpLogin,
			log.NewFields().WithOwner(user.ID))
		writeError(w, http.StatusInternalServerError, "Erro ao criar sessão.")
		return
	}

	slog.InfoContext(r.Context(), "User signed in", "user_id", user.ID)
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{ID: user.ID, Email: user.Email},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the session state. The gate starts undecided and is
// resolved exactly once from the cookie, so the response never claims a
// session it has not verified.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	gate := auth.NewGate()

	claims, err := s.sessionClaims(r)
	if err != nil {
		gate.Deny()
		writeJSON(w, http.StatusOK, map[string]any{"status": gate.Phase().String()})
		return
	}

	if err := gate.Resolve(claims.Subject); err != nil {
		slog.ErrorContext(r.Context(), "Session gate refused identity", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro ao verificar sessão.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": gate.Phase().String(),
		"user":   userResponse{ID: claims.Subject, Email: claims.Email},
	})
}
