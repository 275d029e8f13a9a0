package handlers

import (
	"net/http"
	"sync"

	"github.com/civiclens/app/internal/composer"
	"github.com/civiclens/app/internal/media"
	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/session"
	"github.com/labstack/echo/v4"
)

// ComposeHandler drives the capture -> crop -> caption -> submit flow, one
// flow per signed-in user.
type ComposeHandler struct {
	sessions  *session.Manager
	submitter *composer.Submitter
	source    media.Source
	resolver  composer.GeoResolver

	mu    sync.Mutex
	flows map[string]*composer.Flow
}

// NewComposeHandler creates a new ComposeHandler
func NewComposeHandler(sessions *session.Manager, submitter *composer.Submitter, source media.Source, resolver composer.GeoResolver) *ComposeHandler {
	h := &ComposeHandler{
		sessions:  sessions,
		submitter: submitter,
		source:    source,
		resolver:  resolver,
		flows:     map[string]*composer.Flow{},
	}
	// Closing a session must release its camera stream. Only the signed-out
	// user's flow is torn down; everyone else's composition stays live.
	sessions.OnChange(func(userID string, s *session.Session) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if f, ok := h.flows[userID]; ok {
			f.Reset()
			delete(h.flows, userID)
		}
	})
	return h
}

// RegisterComposeRoutes registers composition flow routes
func (h *ComposeHandler) RegisterComposeRoutes(g *echo.Group) {
	g.POST("/compose/activate", h.Activate)
	g.POST("/compose/capture", h.Capture)
	g.POST("/compose/crop", h.Crop)
	g.POST("/compose/submit", h.Submit)
	g.POST("/compose/cancel", h.Cancel)
}

func (h *ComposeHandler) flow(sess *session.Session) *composer.Flow {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.flows[sess.UserID()]
	if !ok {
		f = composer.NewFlow(sess.UserID(), media.NewPipeline(h.source), h.submitter, h.resolver)
		h.flows[sess.UserID()] = f
	}
	return f
}

// Activate opens the camera for the caller's flow
func (h *ComposeHandler) Activate(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	if err := h.flow(sess).Activate(c.Request().Context()); err != nil {
		// The flow stays on the capture step; the client shows a toast.
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stage": "live"})
}

// Capture takes the still frame and advances to the crop step
func (h *ComposeHandler) Capture(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	if err := h.flow(sess).Capture(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stage": "crop"})
}

// Crop extracts the selected viewport and advances to the preview step
func (h *ComposeHandler) Crop(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	var vp media.Viewport
	if err := c.Bind(&vp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if err := h.flow(sess).Crop(vp); err != nil {
		// Extraction failed; the user stays on the crop step.
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stage": "preview"})
}

// Submit sends the composed post
func (h *ComposeHandler) Submit(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req models.SubmitPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.flow(sess).Submit(c.Request().Context(), req.Caption, req.Tags)
	if err != nil {
		// The flow stays on the preview step so the user can retry
		// without re-capturing.
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"post": post}})
}

// Cancel abandons the flow and releases the camera
func (h *ComposeHandler) Cancel(c echo.Context) error {
	sess, err := requireSession(c, h.sessions)
	if err != nil {
		return err
	}

	h.flow(sess).Reset()
	return c.NoContent(http.StatusNoContent)
}
