package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"famtrack/internal/auth"
	"famtrack/internal/core"
	"famtrack/internal/log"
	"famtrack/internal/services"
	"famtrack/internal/storage"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookieName = "famtrack_session"

// requireUser resolves the session cookie to a user and redirects to
// the login page when there is none.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		userID, err := s.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, auth.ErrSessionNotFound) {
				slog.ErrorContext(r.Context(), "Failed to resolve session", "error", err)
			}
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := s.repo.GetUserByID(r.Context(), userID)
		if err != nil || user == nil {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// currentUser returns the authenticated user stashed by requireUser.
func currentUser(r *http.Request) *storage.User {
	user, _ := r.Context().Value(userContextKey).(*storage.User)
	return user
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
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

// render executes a named template, logging failures instead of
// leaking template internals to the client.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render template",
			"template", name,
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender,
			log.FieldError, err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// invalidateDashboard drops the cached dashboard after any write that
// changes what it shows.
func (s *Server) invalidateDashboard(userID string) {
	s.dashCache.Delete(userID)
}

func todayString() string {
	return time.Now().Format("2006-01-02")
}

// userFacing maps validation errors to messages safe to show in forms.
func userFacing(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "enter a positive amount like 12.50"
	case errors.Is(err, core.ErrInvalidKind):
		return "choose income or expense"
	case errors.Is(err, core.ErrInvalidCategory):
		return "unknown category"
	case errors.Is(err, core.ErrInvalidDate):
		return "enter a date like 2024-06-15"
	case errors.Is(err, core.ErrInvalidPeriod):
		return "choose a weekly, monthly or yearly period"
	case errors.Is(err, core.ErrInvalidThreshold):
		return "alert threshold must be between 0 and 100"
	case errors.Is(err, core.ErrEmptyName):
		return "name is required"
	case errors.Is(err, core.ErrEmptyRelationship):
		return "relationship is required"
	case errors.Is(err, core.ErrBudgetNoOwner), errors.Is(err, core.ErrBudgetBothOwners):
		return err.Error()
	case errors.Is(err, services.ErrUnknownMember):
		return "unknown family member"
	case errors.Is(err, errBadForm):
		return "invalid form data"
	default:
		return "could not save changes"
	}
}
