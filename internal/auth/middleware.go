package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "session"
	viewerKey     = "viewer"
)

// OptionalAuth resolves the viewer from a Bearer header or the session
// cookie. Requests without a valid token continue anonymously.
func OptionalAuth(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(SessionCookie)
		}
		if token != "" {
			if viewer, err := svc.Viewer(token); err == nil {
				SetViewer(c, viewer)
			}
		}
		return c.Next()
	}
}

// RequireAuth redirects anonymous requests to loginURL, carrying the
// original path and query in the next parameter.
func RequireAuth(loginURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ViewerFrom(c); ok {
			return c.Next()
		}
		return c.Redirect(LoginRedirect(loginURL, c.OriginalURL()), fiber.StatusFound)
	}
}

// RequireStaff rejects anyone who is not a staff member.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer, ok := ViewerFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !viewer.IsStaff {
			return fiber.NewError(fiber.StatusForbidden, "staff only")
		}
		return c.Next()
	}
}

func LoginRedirect(loginURL, next string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + url.Values{"next": {next}}.Encode()
}

func SetViewer(c *fiber.Ctx, v Viewer) {
	c.Locals(viewerKey, v)
}

// ViewerFrom reports the authenticated viewer, if any.
func ViewerFrom(c *fiber.Ctx) (Viewer, bool) {
	v, ok := c.Locals(viewerKey).(Viewer)
	if !ok || v.ID == "" {
		return Viewer{}, false
	}
	return v, true
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
