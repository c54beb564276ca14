package http

import "github.com/labstack/echo/v4"

// Handler registers a route group on the shared Echo instance. The
// server stays agnostic of what the routes do.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
