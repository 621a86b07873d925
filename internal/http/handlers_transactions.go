package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"famtrack/internal/core"
	"famtrack/internal/services"
)

type transactionsPage struct {
	pageBase
	Transactions []transactionView
	Members      []memberOption
	Categories   []core.Category
	Today        string
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r, "")
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, formError string) {
	user := currentUser(r)

	txs, err := s.transactions.List(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	members, err := s.repo.ListMembers(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list members",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := transactionsPage{
		pageBase:     newPageBase(user),
		Transactions: newTransactionViews(txs),
		Members:      memberOptions(members),
		Categories:   core.AllCategories(),
		Today:        todayString(),
	}
	page.Error = formError
	s.render(w, r, "transactions.html", page)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	t, err := parseTransactionForm(r, user.ID)
	if err != nil {
		s.listTransactions(w, r, userFacing(err))
		return
	}

	if err := s.transactions.Create(r.Context(), t); err != nil {
		slog.WarnContext(r.Context(), "Transaction rejected",
			"user_id", user.ID, "error", err)
		s.listTransactions(w, r, userFacing(err))
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleTransactionEdit(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	switch r.Method {
	case http.MethodGet:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		t, err := s.transactions.Get(r.Context(), id, user.ID)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.renderTransactionEdit(w, r, t, "")
	case http.MethodPost:
		t, err := parseTransactionForm(r, user.ID)
		if err != nil || t.ID == "" {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		if err := s.transactions.Update(r.Context(), t); err != nil {
			if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrNotOwner) {
				http.NotFound(w, r)
				return
			}
			s.renderTransactionEdit(w, r, t, userFacing(err))
			return
		}
		s.invalidateDashboard(user.ID)
		http.Redirect(w, r, "/transactions", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type transactionEditPage struct {
	pageBase
	Transaction transactionView
	Raw         *core.Transaction
	Members     []memberOption
	Assigned    map[string]bool
	Categories  []core.Category
	AmountValue string
	DateValue   string
}

func (s *Server) renderTransactionEdit(w http.ResponseWriter, r *http.Request, t *core.Transaction, formError string) {
	user := currentUser(r)

	members, err := s.repo.ListMembers(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	assigned := make(map[string]bool, len(t.Members))
	for _, m := range t.Members {
		assigned[m.ID] = true
	}

	page := transactionEditPage{
		pageBase:    newPageBase(user),
		Transaction: newTransactionView(*t),
		Raw:         t,
		Members:     memberOptions(members),
		Assigned:    assigned,
		Categories:  core.AllCategories(),
		AmountValue: strings.TrimPrefix(core.FormatPounds(t.Amount.Cents), "£"),
		DateValue:   t.OccurredAt.Format("2006-01-02"),
	}
	page.Error = formError
	s.render(w, r, "transaction_edit.html", page)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
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
	if err := s.transactions.Delete(r.Context(), id, user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete transaction",
			"transaction_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}
