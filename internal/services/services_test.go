package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"famtrack/internal/core"
	"famtrack/internal/storage"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "famtrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := repo.EnsureSystemCategories(context.Background()); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	return repo
}

func seedUser(t *testing.T, repo *storage.Repository) *storage.User {
	t.Helper()
	user := &storage.User{Name: "Test User", Email: "test@example.com", PasswordHash: "x"}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedMember(t *testing.T, repo *storage.Repository, userID, name string) *core.Member {
	t.Helper()
	m := &core.Member{UserID: userID, Name: name, Relationship: "Spouse"}
	if err := repo.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func expense(userID string, cents int64, occurredAt time.Time, participates bool, members ...core.MemberRef) *core.Transaction {
	return &core.Transaction{
		UserID:           userID,
		Amount:           core.Money{Cents: cents},
		Kind:             core.Expense,
		Category:         core.CategoryFood,
		OccurredAt:       occurredAt,
		UserParticipates: participates,
		Members:          members,
	}
}
