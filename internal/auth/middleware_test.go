package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func viewerApp(svc *Service) *fiber.App {
	app := fiber.New()
	app.Use(OptionalAuth(svc))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		viewer, ok := ViewerFrom(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(viewer.Username)
	})
	app.Get("/create/", RequireAuth("/auth/login/"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/admin", RequireStaff(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return string(buf[:n])
}

func TestOptionalAuthFromCookieAndHeader(t *testing.T) {
	svc := NewService("secret", nil)
	app := viewerApp(svc)
	token, _ := svc.signToken(User{ID: "user-1", Username: "author"}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp, _ := app.Test(req)
	if body := readBody(t, resp); body != "anonymous" {
		t.Fatalf("expected anonymous, got %q", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp, _ = app.Test(req)
	if body := readBody(t, resp); body != "author" {
		t.Fatalf("expected cookie viewer, got %q", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if body := readBody(t, resp); body != "author" {
		t.Fatalf("expected bearer viewer, got %q", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tampered"})
	resp, _ = app.Test(req)
	if body := readBody(t, resp); body != "anonymous" {
		t.Fatalf("invalid cookie must stay anonymous, got %q", body)
	}
}

func TestRequireAuthRedirectsWithNext(t *testing.T) {
	app := viewerApp(NewService("secret", nil))

	req := httptest.NewRequest(http.MethodGet, "/create/?draft=1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("bad location: %v", err)
	}
	if loc.Path != "/auth/login/" || loc.Query().Get("next") != "/create/?draft=1" {
		t.Fatalf("unexpected redirect %q", resp.Header.Get("Location"))
	}
}

func TestRequireAuthPassesViewer(t *testing.T) {
	svc := NewService("secret", nil)
	app := viewerApp(svc)
	token, _ := svc.signToken(User{ID: "user-1", Username: "author"}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok, got %d", resp.StatusCode)
	}
}

func TestRequireStaff(t *testing.T) {
	svc := NewService("secret", nil)
	app := viewerApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}

	member, _ := svc.signToken(User{ID: "user-1", Username: "author"}, time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}

	staff, _ := svc.signToken(User{ID: "user-2", Username: "admin", IsStaff: true}, time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok, got %d", resp.StatusCode)
	}
}

func TestLoginRedirect(t *testing.T) {
	if got := LoginRedirect("/auth/login/", "/follow/"); got != "/auth/login/?next=%2Ffollow%2F" {
		t.Fatalf("unexpected redirect %q", got)
	}
	if got := LoginRedirect("/login?x=1", "/"); got != "/login?x=1&next=%2F" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("bad") != "" {
		t.Fatalf("expected empty token")
	}
	if bearerFromHeader("bearer token") != "token" {
		t.Fatalf("expected token")
	}
}
