package handlers

import (
	"net/http"
	"sync"

	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
	"github.com/civiclens/app/internal/social"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	sessions *session.Manager
	users    repositories.UserRepository
	follows  repositories.FollowRepository

	mu       sync.Mutex
	togglers map[string]*social.Toggler
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(sessions *session.Manager, users repositories.UserRepository, follows repositories.FollowRepository) *FollowHandler {
	h := &FollowHandler{
		sessions: sessions,
		users:    users,
		follows:  follows,
		togglers: map[string]*social.Toggler{},
	}
	sessions.OnChange(func(userID string, s *session.Session) {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.togglers, userID)
	})
	return h
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow/toggle", h.ToggleFollow)
	g.GET("/following", h.GetFollowing)
}

func (h *FollowHandler) toggler(sess *session.Session) *social.Toggler {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.togglers[sess.UserID()]
	if !ok {
		t = social.NewToggler(sess, h.users, h.follows)
		h.togglers[sess.UserID()] = t
	}
	return t
}

// ToggleFollow follows or unfollows the target user
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	targetID := c.Param("id")
	if targetID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	following, err := h.toggler(sess).Toggle(c.Request().Context(), targetID)
	if err != nil {
		if err == social.ErrToggleInFlight {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		// Partial writes may have landed; the local set already reflects
		// the user's intent and the failures are logged.
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "data": echo.Map{"following": following}})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}

// GetFollowing returns the caller's local following set
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": sess.FollowingIDs()}})
}
