package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"famtrack/internal/auth"
)

type authPage struct {
	Error string
	Email string
	Name  string
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "signup.html", authPage{})
	case http.MethodPost:
		s.signup(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if name == "" || email == "" {
		s.render(w, r, "signup.html", authPage{Error: "name and email are required", Email: email, Name: name})
		return
	}

	user, err := s.authenticator.Register(r.Context(), email, name, password)
	if err != nil {
		msg := "could not create account"
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			msg = "password must be at least 8 characters"
		case errors.Is(err, auth.ErrEmailExists):
			msg = "an account with this email already exists"
		default:
			slog.ErrorContext(r.Context(), "Signup failed", "error", err)
		}
		s.render(w, r, "signup.html", authPage{Error: msg, Email: email, Name: name})
		return
	}

	s.startSession(w, r, user.ID)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", authPage{})
	case http.MethodPost:
		s.login(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	user, err := s.authenticator.Authenticate(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.ErrorContext(r.Context(), "Login failed", "error", err)
		}
		s.render(w, r, "login.html", authPage{Error: "invalid email or password", Email: email})
		return
	}

	s.startSession(w, r, user.ID)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string) {
	token, err := s.sessions.Create(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.setSessionCookie(w, token, time.Now().Add(s.sessions.TTL()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			slog.ErrorContext(r.Context(), "Failed to destroy session", "error", err)
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
