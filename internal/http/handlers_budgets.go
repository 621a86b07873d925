package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"famtrack/internal/core"
	"famtrack/internal/services"
)

type budgetsPage struct {
	pageBase
	Budgets    []budgetView
	Members    []memberOption
	Categories []core.Category
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgets(w, r, "")
	case http.MethodPost:
		s.createBudget(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request, formError string) {
	user := currentUser(r)
	now := time.Now()

	budgets, err := s.budgets.List(r.Context(), user.ID, false)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list budgets",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := budgetsPage{pageBase: newPageBase(user), Categories: core.AllCategories()}
	page.Error = formError

	for _, b := range budgets {
		eval, err := s.budgets.Evaluate(r.Context(), b, now)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to evaluate budget",
				"budget_id", b.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		page.Budgets = append(page.Budgets, newBudgetView(eval))
	}

	members, err := s.repo.ListMembers(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	page.Members = memberOptions(members)

	s.render(w, r, "budgets.html", page)
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	b, err := parseBudgetForm(r, user.ID)
	if err != nil {
		s.listBudgets(w, r, userFacing(err))
		return
	}

	if err := s.budgets.Create(r.Context(), user.ID, b); err != nil {
		slog.WarnContext(r.Context(), "Budget rejected",
			"user_id", user.ID, "error", err)
		s.listBudgets(w, r, userFacing(err))
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}

func (s *Server) handleBudgetEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	b, err := parseBudgetForm(r, user.ID)
	if err != nil || b.ID == "" {
		s.listBudgets(w, r, userFacing(err))
		return
	}

	if err := s.budgets.Update(r.Context(), user.ID, b); err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrNotOwner) {
			http.NotFound(w, r)
			return
		}
		s.listBudgets(w, r, userFacing(err))
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}

// handleBudgetToggle pauses or resumes a budget without deleting it.
func (s *Server) handleBudgetToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.PostFormValue("id"))
	var err error
	if r.PostFormValue("action") == "unpause" {
		err = s.budgets.Unpause(r.Context(), user.ID, id)
	} else {
		err = s.budgets.Pause(r.Context(), user.ID, id)
	}
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrNotOwner) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to toggle budget",
			"budget_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}

func (s *Server) handleBudgetDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.PostFormValue("id"))
	if err := s.budgets.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrNotOwner) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete budget",
			"budget_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}
