package handlers

import (
	"net/http"
	"strconv"

	"github.com/civiclens/app/internal/geo"
	"github.com/civiclens/app/internal/session"
	"github.com/labstack/echo/v4"
)

// GeoHandler handles the map view's routing requests
type GeoHandler struct {
	sessions *session.Manager
	router   *geo.Router
}

// NewGeoHandler creates a new GeoHandler
func NewGeoHandler(sessions *session.Manager, router *geo.Router) *GeoHandler {
	return &GeoHandler{sessions: sessions, router: router}
}

// RegisterGeoRoutes registers geo-related routes
func (h *GeoHandler) RegisterGeoRoutes(g *echo.Group) {
	g.GET("/route", h.GetRoute)
}

// GetRoute returns a path between two coordinate pairs
func (h *GeoHandler) GetRoute(c echo.Context) error {
	if _, err := requireSession(c, h.sessions); err != nil {
		return err
	}

	fromLat, err1 := strconv.ParseFloat(c.QueryParam("from_lat"), 64)
	fromLng, err2 := strconv.ParseFloat(c.QueryParam("from_lng"), 64)
	toLat, err3 := strconv.ParseFloat(c.QueryParam("to_lat"), 64)
	toLng, err4 := strconv.ParseFloat(c.QueryParam("to_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid coordinates")
	}

	route, err := h.router.Route(c.Request().Context(), fromLat, fromLng, toLat, toLng)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": route})
}
