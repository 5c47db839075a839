package browser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// TestSmoke_LoginDashboardLogout walks the main page flow with a real browser.
func TestSmoke_LoginDashboardLogout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	count, err := page.Locator("[data-testid=clients]").TextContent()
	if err != nil {
		t.Fatalf("failed to read student count: %v", err)
	}
	if strings.TrimSpace(count) != "2" {
		t.Errorf("student count = %q, want 2", count)
	}

	if err := page.Locator(".logout button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click sign out: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/login", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("logout did not return to login: %v", err)
	}

	resp, err := page.Goto(app.BaseURL + "/dashboard")
	if err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}
	if !strings.HasSuffix(resp.URL(), "/login") {
		t.Errorf("dashboard after logout landed on %s", resp.URL())
	}
}

// TestSmoke_WrongPassword verifies the form shows the failure in place.
func TestSmoke_WrongPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)
	if _, err := page.Goto(app.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}
	page.Locator("input[name=email]").Fill(trainerEmail)
	page.Locator("input[name=password]").Fill("wrong")
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	msg, err := page.Locator("[role=alert]").TextContent()
	if err != nil {
		t.Fatalf("no error message: %v", err)
	}
	if strings.TrimSpace(msg) == "" {
		t.Error("empty error message")
	}
	if v, _ := page.Locator("input[name=email]").InputValue(); v != trainerEmail {
		t.Errorf("email not kept: %q", v)
	}
}

// TestSmoke_DietPreview builds a draft through the JSON API and checks the printable week.
func TestSmoke_DietPreview(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	calls := []struct {
		path string
		body string
	}{
		{"/api/diet-plans/draft/meta", `{"name":"Lean week","goal":"Perder Peso","description":"**High protein** days"}`},
		{"/api/diet-plans/draft/add", `{"day":"monday","meal":"breakfast","food_id":10,"quantity":"100g"}`},
	}
	for _, c := range calls {
		status, err := page.Evaluate(fmt.Sprintf(`async () => (await fetch(%q, {
			method: "POST", headers: {"Content-Type": "application/json"}, body: %q,
		})).status`, c.path, c.body))
		if err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		if fmt.Sprint(status) != "200" {
			t.Fatalf("%s status = %v", c.path, status)
		}
	}

	if _, err := page.Goto(app.BaseURL + "/diet-plans/draft/preview"); err != nil {
		t.Fatalf("failed to open preview: %v", err)
	}
	html, err := page.Locator(".diet-preview").InnerHTML()
	if err != nil {
		t.Fatalf("preview missing: %v", err)
	}
	for _, want := range []string{"Lean week", "<strong>High protein</strong>", "Oatmeal", "389 kcal"} {
		if !strings.Contains(html, want) {
			t.Errorf("preview lacks %q", want)
		}
	}
}
