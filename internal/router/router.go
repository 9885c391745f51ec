package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventcat/internal/handler"
	"github.com/iliyamo/eventcat/internal/repository"
)

// RegisterRoutes registers the health check.  It stays outside the cache
// and rate limit so monitoring always sees the live row count.
func RegisterRoutes(e *echo.Echo, repo *repository.EventRepo) {
	e.GET("/healthz", handler.Health(repo))
}

// RegisterEvents registers the catalog endpoints.  Middleware given here
// (response cache, rate limit) applies to these routes only.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("", mw...)

	g.POST("/event", h.CreateEvent)
	g.GET("/event/:id", h.GetEvent)
	g.PUT("/event/:id", h.UpdateEvent)
	// suspension, the row is kept
	g.DELETE("/event/:id", h.SuspendEvent)

	g.GET("/activity/:id", h.GetActivity)
	g.POST("/search", h.SearchEvents)
}
