package browser_test

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"trainerdash/internal/adapters/api"
	web "trainerdash/internal/adapters/http"
	"trainerdash/internal/adapters/http/middleware"
	"trainerdash/internal/adapters/http/perf"
	"trainerdash/internal/adapters/storage"
	auditStore "trainerdash/internal/adapters/storage/audit"
	sessionStore "trainerdash/internal/adapters/storage/session"
	"trainerdash/internal/adapters/storage/workspace"
)

const (
	trainerEmail    = "coach@test.com"
	trainerPassword = "TestPass123!"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL  string
	DB       *sql.DB
	Server   *http.Server
	Upstream *httptest.Server
	PW       *playwright.Playwright
	Browser  playwright.Browser
}

// fakeFitnessAPI serves a small fixed catalog behind a bearer token.
func fakeFitnessAPI() http.Handler {
	students := []map[string]any{
		{"id": 1, "name": "Ana Ruiz", "email": "ana@test.com", "goal": "Perder Peso", "plan_type": "Pro", "status": "active", "is_premium": true},
		{"id": 2, "name": "Bruno Díaz", "email": "bruno@test.com", "goal": "Aumentar Fuerza", "plan_type": "Personalizado", "status": "active"},
	}
	foods := []map[string]any{
		{"id": 10, "name": "Oatmeal", "category": "Cereales", "calories_per_100g": 389},
		{"id": 11, "name": "Chicken breast", "category": "Proteínas", "calories_per_100g": 165},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		reply := func(status int, v any) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(v)
		}
		if r.URL.Path == "/auth/login" {
			var creds map[string]string
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &creds)
			if creds["email"] != trainerEmail || creds["password"] != trainerPassword {
				reply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
				return
			}
			reply(http.StatusOK, map[string]any{"token": "browser-token", "user": map[string]any{
				"id": 1, "name": "Coach Test", "email": trainerEmail, "role": "trainer",
			}})
			return
		}
		if r.Header.Get("Authorization") != "Bearer browser-token" {
			reply(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}
		switch r.URL.Path {
		case "/trainer/my-students":
			reply(http.StatusOK, map[string]any{"data": students})
		case "/foods":
			reply(http.StatusOK, foods)
		case "/routines", "/diet-plans", "/exercises":
			reply(http.StatusOK, []any{})
		case "/plans":
			reply(http.StatusOK, []map[string]any{{"id": 1, "name": "Pro", "price": 29.9, "is_active": true}})
		default:
			reply(http.StatusNotFound, map[string]string{"message": "not found"})
		}
	})
}

// newTestApp creates a fully wired app with a temp SQLite DB, a fake fitness API and an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	upstream := httptest.NewServer(fakeFitnessAPI())

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so the static directory resolves
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	middleware.ExtraTrustedOrigins = append(middleware.ExtraTrustedOrigins,
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("localhost:%d", port),
	)

	collector := perf.NewCollector(1000)
	csrfKey := make([]byte, 32)
	rand.Read(csrfKey)
	mux := web.NewMux(&web.Deps{
		API:        api.NewClient(upstream.URL, upstream.Client(), collector),
		Sessions:   sessionStore.NewSQLiteStore(db, sessionStore.NewSealer("browser-secret")),
		Workspaces: workspace.NewStore(),
		Audit:      auditStore.NewSQLiteStore(db),
		Collector:  collector,
	}, web.Options{StaticDir: "static", CSRFKey: csrfKey})

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL:  baseURL,
		DB:       db,
		Server:   srv,
		Upstream: upstream,
		PW:       pw,
		Browser:  browser,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		upstream.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in through the form and waits for the dashboard.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(trainerEmail); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(trainerPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/dashboard", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
