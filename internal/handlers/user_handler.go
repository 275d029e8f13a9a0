package handlers

import (
	"net/http"
	"strconv"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile page HTTP requests
type UserHandler struct {
	sessions *session.Manager
	users    repositories.UserRepository
	posts    repositories.PostRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(sessions *session.Manager, users repositories.UserRepository, posts repositories.PostRepository) *UserHandler {
	return &UserHandler{sessions: sessions, users: users, posts: posts}
}

// RegisterProfileRoutes registers profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetMyProfile)
	g.PUT("/profile", h.UpdateMyProfile)
	g.GET("/users/:id", h.GetProfile)
}

// GetMyProfile returns the caller's own profile page data
func (h *UserHandler) GetMyProfile(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}
	return h.profile(c, sess.UserID(), sess)
}

// UpdateMyProfile merge-updates the caller's name and image. The change does
// not retroactively update author displays cached by live sessions.
func (h *UserHandler) UpdateMyProfile(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Image != "" {
		fields["image"] = req.Image
	}
	if len(fields) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	if err := h.users.MergeUser(c.Request().Context(), sess.UserID(), fields); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user, err := h.users.GetUserByID(c.Request().Context(), sess.UserID())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": user}})
}

// GetProfile returns another user's profile page data
func (h *UserHandler) GetProfile(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}
	return h.profile(c, c.Param("id"), sess)
}

func (h *UserHandler) profile(c echo.Context, userID string, sess *session.Session) error {
	user, err := h.users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 30
	}
	posts, err := h.posts.ListByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"user":         user,
			"posts":        posts,
			"is_following": sess.IsFollowing(userID),
		},
	})
}
