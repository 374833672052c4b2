package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterPath serves the registration form.
const RegisterPath = "/register"

// PageHandler serves placeholders for the portal pages; their content is
// rendered elsewhere.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type pageResponse struct {
	Page string `json:"page"`
	Path string `json:"path"`
	User any    `json:"user,omitempty"`
}

// Page returns a handler naming the page it stands in for.
func (h *PageHandler) Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := pageResponse{Page: name, Path: c.Request().URL.Path}
		if sess, err := ctxSession(c); err == nil {
			if u := sess.State().User; u != nil {
				resp.User = u
			}
		}
		return c.JSON(http.StatusOK, resp)
	}
}
