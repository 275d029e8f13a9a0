package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/civiclens/app/internal/comments"
	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
	"github.com/civiclens/app/internal/stream"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment thread HTTP requests
type CommentHandler struct {
	sessions     *session.Manager
	commentsRepo repositories.CommentRepository
	posts        repositories.PostRepository
	localCache   *comments.LocalCache // nil when the legacy view is disabled

	// One change-stream pump per watched post, shared through the hub by
	// every client streaming that thread.
	hub    *stream.Hub
	pumpMu sync.Mutex
	pumps  map[string]context.CancelFunc
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(sessions *session.Manager, commentsRepo repositories.CommentRepository, posts repositories.PostRepository, localCache *comments.LocalCache, hub *stream.Hub) *CommentHandler {
	return &CommentHandler{
		sessions:     sessions,
		commentsRepo: commentsRepo,
		posts:        posts,
		localCache:   localCache,
		hub:          hub,
		pumps:        map[string]context.CancelFunc{},
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/posts/:post_id/comments", h.GetComments)
	g.GET("/posts/:post_id/comments/stream", h.StreamComments)
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments/cached", h.GetCachedComments)
}

func (h *CommentHandler) thread(sess *session.Session) *comments.Thread {
	return comments.NewThread(sess, h.commentsRepo, h.posts)
}

// GetComments returns a post's comment thread, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	postID := c.Param("post_id")
	thread, err := h.thread(sess).List(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Refresh the legacy view's same-device copy while we have the thread.
	if h.localCache != nil {
		cached := make([]comments.CachedComment, len(thread))
		for i, cm := range thread {
			cached[i] = comments.CachedComment{
				PostID:      cm.PostID,
				UserID:      cm.UserID,
				Text:        cm.Text,
				AuthorName:  cm.AuthorName,
				AuthorImage: cm.AuthorImage,
				CreatedAt:   cm.CreatedAt,
			}
		}
		if err := h.localCache.Replace(postID, cached); err != nil {
			c.Logger().Warnf("local comment cache refresh: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"comments": thread}})
}

// watch joins the hub topic for a post, starting the shared change-stream
// pump when this is the first watcher.
func (h *CommentHandler) watch(postID string) (*stream.Client, error) {
	topic := "comments:" + postID

	h.pumpMu.Lock()
	defer h.pumpMu.Unlock()

	if _, running := h.pumps[postID]; !running {
		ctx, cancel := context.WithCancel(context.Background())
		snapshots, err := h.commentsRepo.Subscribe(ctx, postID)
		if err != nil {
			cancel()
			return nil, err
		}
		h.pumps[postID] = cancel

		go func() {
			for snapshot := range snapshots {
				payload, err := json.Marshal(snapshot)
				if err != nil {
					continue
				}
				h.hub.Broadcast(topic, payload)
			}
		}()
	}

	return h.hub.Register(topic), nil
}

// unwatch drops a watcher and stops the pump once nobody follows the post.
func (h *CommentHandler) unwatch(postID string, client *stream.Client) {
	h.hub.Unregister(client)

	h.pumpMu.Lock()
	defer h.pumpMu.Unlock()
	if h.hub.Watchers(client.Topic) == 0 {
		if cancel, ok := h.pumps[postID]; ok {
			cancel()
			delete(h.pumps, postID)
		}
	}
}

// StreamComments pushes thread snapshots over server-sent events until the
// client disconnects
func (h *CommentHandler) StreamComments(c echo.Context) error {
	if _, err := requireSession(c, h.sessions); err != nil {
		return err
	}

	postID := c.Param("post_id")
	client, err := h.watch(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer h.unwatch(postID, client)

	ctx := c.Request().Context()
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-client.Send:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// CreateComment appends a comment to a post's thread
func (h *CommentHandler) CreateComment(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.thread(sess).Submit(c.Request().Context(), c.Param("post_id"), req.Text)
	if err != nil {
		// The input was already cleared client-side; the comment will not
		// appear in the thread.
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"comment": comment}})
}

// GetCachedComments serves the legacy view's same-device copy
func (h *CommentHandler) GetCachedComments(c echo.Context) error {
	if _, err := requireSession(c, h.sessions); err != nil {
		return err
	}
	if h.localCache == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Local comment cache not configured")
	}

	cached, err := h.localCache.Load(c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"comments": cached}})
}
