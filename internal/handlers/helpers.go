package handlers

import (
	"net/http"

	"github.com/civiclens/app/internal/session"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user id set by the JWT
// middleware. Empty when unauthenticated.
func getUserIDFromContext(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

// requireSession resolves the caller's live session or fails with 401. A
// valid token without a live session means the user signed out elsewhere.
func requireSession(c echo.Context, manager *session.Manager) (*session.Session, error) {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	sess := manager.Get(userID)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Session expired, sign in again")
	}
	return sess, nil
}
