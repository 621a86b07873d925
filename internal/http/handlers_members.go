package http

import (
	"log/slog"
	"net/http"
	"strings"

	"famtrack/internal/core"
)

type membersPage struct {
	pageBase
	Members []memberStatsView
}

type memberStatsView struct {
	ID           string
	Name         string
	Relationship string
	JoinedAt     string
	Transactions int
	TotalShare   string
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMembers(w, r, "")
	case http.MethodPost:
		s.createMember(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request, formError string) {
	user := currentUser(r)

	stats, err := s.analytics.MemberStats(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute member stats",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := membersPage{pageBase: newPageBase(user)}
	page.Error = formError
	for _, st := range stats {
		page.Members = append(page.Members, memberStatsView{
			ID:           st.Member.ID,
			Name:         st.Member.Name,
			Relationship: st.Member.Relationship,
			JoinedAt:     st.Member.JoinedAt.Format("2006-01-02"),
			Transactions: st.TransactionCount,
			TotalShare:   formatPoundsFloat(st.TotalShare),
		})
	}
	s.render(w, r, "members.html", page)
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	m := &core.Member{
		UserID:       user.ID,
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		Relationship: strings.TrimSpace(r.PostFormValue("relationship")),
	}
	if err := m.Validate(); err != nil {
		s.listMembers(w, r, userFacing(err))
		return
	}

	if err := s.repo.CreateMember(r.Context(), m); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create member",
			"user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}

func (s *Server) handleMemberEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	m := &core.Member{
		ID:           strings.TrimSpace(r.PostFormValue("id")),
		UserID:       user.ID,
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		Relationship: strings.TrimSpace(r.PostFormValue("relationship")),
	}
	if err := m.Validate(); err != nil {
		s.listMembers(w, r, userFacing(err))
		return
	}

	if err := s.repo.UpdateMember(r.Context(), m); err != nil {
		slog.ErrorContext(r.Context(), "Failed to update member",
			"member_id", m.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}

func (s *Server) handleMemberDelete(w http.ResponseWriter, r *http.Request) {
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
	if err := s.repo.DeleteMember(r.Context(), id, user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete member",
			"member_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.invalidateDashboard(user.ID)
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}
