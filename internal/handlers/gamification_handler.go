package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/civiclens/app/internal/gamification"
	"github.com/civiclens/app/internal/session"
	"github.com/labstack/echo/v4"
)

// GamificationHandler handles points/level/leaderboard HTTP requests
type GamificationHandler struct {
	sessions *session.Manager
	widget   *gamification.Widget
}

// NewGamificationHandler creates a new GamificationHandler
func NewGamificationHandler(sessions *session.Manager, widget *gamification.Widget) *GamificationHandler {
	return &GamificationHandler{sessions: sessions, widget: widget}
}

// RegisterGamificationRoutes registers gamification-related routes
func (h *GamificationHandler) RegisterGamificationRoutes(g *echo.Group) {
	g.GET("/gamification/me", h.GetMyState)
	g.GET("/gamification/me/progress/stream", h.StreamProgress)
	g.GET("/leaderboard", h.GetLeaderboard)
}

// GetMyState returns the caller's points/level/streak widget state
func (h *GamificationHandler) GetMyState(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	state, err := h.widget.State(c.Request().Context(), sess.UserID())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": state})
}

// StreamProgress animates the progress bar over server-sent events, one frame
// per tick from zero up to the caller's current progress percentage.
func (h *GamificationHandler) StreamProgress(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	state, err := h.widget.State(c.Request().Context(), sess.UserID())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	animator := gamification.NewAnimator(state.ProgressPercent)
	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			value := animator.Tick()
			if _, err := fmt.Fprintf(resp, "data: {\"progress\":%d}\n\n", value); err != nil {
				return nil
			}
			resp.Flush()
			if animator.Done() {
				return nil
			}
		}
	}
}

// GetLeaderboard returns the top-N leaderboard rows
func (h *GamificationHandler) GetLeaderboard(c echo.Context) error {
	if _, err := requireSession(c, h.sessions); err != nil {
		return err
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	rows, err := h.widget.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"leaderboard": rows}})
}
