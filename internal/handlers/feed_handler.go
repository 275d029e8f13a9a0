package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/civiclens/app/internal/feed"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	sessions *session.Manager
	posts    repositories.PostRepository

	mu    sync.Mutex
	views map[string]*feed.View
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(sessions *session.Manager, posts repositories.PostRepository) *FeedHandler {
	h := &FeedHandler{
		sessions: sessions,
		posts:    posts,
		views:    map[string]*feed.View{},
	}
	// A view's like state lives and dies with its owner's session.
	sessions.OnChange(func(userID string, s *session.Session) {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.views, userID)
	})
	return h
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/feed/stream", h.StreamFeed)
	g.POST("/posts/:post_id/likes/toggle", h.ToggleLike)
}

func (h *FeedHandler) view(sess *session.Session) *feed.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.views[sess.UserID()]
	if !ok {
		v = feed.NewView(sess, h.posts)
		h.views[sess.UserID()] = v
	}
	return v
}

// GetFeed returns one enriched feed snapshot
func (h *FeedHandler) GetFeed(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 30
	}

	posts, err := h.view(sess).Refresh(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}

// StreamFeed pushes enriched feed snapshots over server-sent events until the
// client disconnects, which tears the underlying subscription down.
func (h *FeedHandler) StreamFeed(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 30
	}

	ctx := c.Request().Context()
	snapshots, err := h.view(sess).Subscribe(ctx, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, ok := <-snapshots:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// ToggleLike flips the caller's like on a post, optimistically
func (h *FeedHandler) ToggleLike(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	postID := c.Param("post_id")
	liked, err := h.view(sess).ToggleLike(c.Request().Context(), postID)
	if err != nil {
		if err == feed.ErrToggleInFlight {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		// The optimistic flip has already been reverted; tell the client
		// the state it should display.
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "data": echo.Map{"liked": liked}})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": liked}})
}
