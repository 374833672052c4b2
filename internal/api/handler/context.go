package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hirelane/portal/internal/api/middleware"
	"github.com/hirelane/portal/internal/core/ports"
)

// ctxSession returns the browser session attached by the Session middleware.
// Its absence is a wiring error, not a client error.
func ctxSession(c echo.Context) (ports.Session, error) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return sess, nil
}
