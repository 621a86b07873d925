package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"famtrack/internal/auth"
	"famtrack/internal/services"
	"famtrack/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	repo, err := storage.New(filepath.Join(t.TempDir(), "famtrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	if err := repo.EnsureSystemCategories(context.Background()); err != nil {
		t.Fatalf("seed categories: %v", err)
	}

	budgets := services.NewBudgetService(repo)
	srv := NewServer("127.0.0.1:0", Deps{
		Repo:          repo,
		Authenticator: auth.NewPasswordAuthenticator(repo),
		Sessions:      auth.NewSessionManager(repo, time.Hour),
		Transactions:  services.NewTransactionService(repo, budgets, nil),
		Budgets:       budgets,
		Analytics:     services.NewAnalyticsService(repo, budgets),
		Exporter:      services.NewExportService(repo),
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return ts, &http.Client{Jar: jar}
}

func signup(t *testing.T, ts *httptest.Server, client *http.Client) {
	t.Helper()
	resp, err := client.PostForm(ts.URL+"/signup", url.Values{
		"name":     {"Alex"},
		"email":    {"alex@example.com"},
		"password": {"correct horse"},
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup landed on status %d", resp.StatusCode)
	}
}

func mustGet(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestHealthEndpoints(t *testing.T) {
	ts, client := newTestServer(t)

	body := mustGet(t, client, ts.URL+"/healthz")
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("healthz body = %s", body)
	}

	body = mustGet(t, client, ts.URL+"/readyz")
	if !strings.Contains(body, `"status":"ready"`) {
		t.Errorf("readyz body = %s", body)
	}
}

func TestSuspiciousRequestCounted(t *testing.T) {
	ts, client := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/login", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("User-Agent", "sqlmap/1.7")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	resp.Body.Close()
	// Scan patterns are flagged, not blocked
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := mustGet(t, client, ts.URL+"/readyz")
	if !strings.Contains(body, `"suspicious_requests":1`) {
		t.Errorf("readyz missing detection count:\n%s", body)
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	ts, _ := newTestServer(t)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, ts, client)

	body := mustGet(t, client, ts.URL+"/")
	if !strings.Contains(body, "Dashboard") || !strings.Contains(body, "Alex") {
		t.Error("dashboard missing after signup")
	}

	resp, err := client.PostForm(ts.URL+"/logout", nil)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()

	// Back on the login page after logout
	if !strings.Contains(mustGet(t, client, ts.URL+"/"), "Log in") {
		t.Error("expected login page after logout")
	}

	// Fresh client can log back in
	jar, _ := cookiejar.New(nil)
	again := &http.Client{Jar: jar}
	resp, err = again.PostForm(ts.URL+"/login", url.Values{
		"email":    {"alex@example.com"},
		"password": {"correct horse"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if !strings.Contains(mustGet(t, again, ts.URL+"/"), "Dashboard") {
		t.Error("dashboard missing after login")
	}
}

func TestTransactionAndBudgetFlow(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, ts, client)

	// Add a family member
	resp, err := client.PostForm(ts.URL+"/members", url.Values{
		"name":         {"Sarah"},
		"relationship": {"Spouse"},
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	resp.Body.Close()

	membersBody := mustGet(t, client, ts.URL+"/members")
	if !strings.Contains(membersBody, "Sarah") {
		t.Fatal("member not listed")
	}
	memberID := extractFormValue(t, membersBody, "id")

	// Shared £100 expense, user participating
	resp, err = client.PostForm(ts.URL+"/transactions", url.Values{
		"amount":            {"100.00"},
		"kind":              {"expense"},
		"category":          {"Food"},
		"date":              {time.Now().Format("2006-01-02")},
		"members":           {memberID},
		"user_participates": {"on"},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	resp.Body.Close()

	txBody := mustGet(t, client, ts.URL+"/transactions")
	if !strings.Contains(txBody, "Shared (User + Members)") {
		t.Error("shared classification missing from listing")
	}
	if !strings.Contains(txBody, "£50.00") {
		t.Error("per-head share missing from listing")
	}

	// Budget that the expense pushes past its threshold
	resp, err = client.PostForm(ts.URL+"/budgets", url.Values{
		"ceiling":         {"120.00"},
		"period":          {"monthly"},
		"alert_threshold": {"80"},
		"notifications":   {"on"},
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	resp.Body.Close()

	budgetBody := mustGet(t, client, ts.URL+"/budgets")
	if !strings.Contains(budgetBody, "alert threshold reached") {
		t.Errorf("budget status missing:\n%s", budgetBody)
	}

	// CSV export carries the transaction
	resp, err = client.Get(ts.URL + "/export/csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	csvBody, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(csvBody), "Food,expense,100.00,Sarah,false") {
		t.Errorf("csv body = %s", csvBody)
	}
}

// extractFormValue pulls the first hidden id input out of a rendered page.
func extractFormValue(t *testing.T, body, name string) string {
	t.Helper()
	marker := `name="` + name + `" value="`
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("no %s field in page", name)
	}
	rest := body[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatalf("unterminated %s field", name)
	}
	return rest[:end]
}
