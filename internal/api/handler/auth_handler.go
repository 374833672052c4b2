package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api/middleware"
	"github.com/hirelane/portal/internal/core/domain"
	"github.com/hirelane/portal/internal/core/ports"
	"github.com/hirelane/portal/internal/core/service"
)

type AuthHandler struct {
	log zerolog.Logger
}

func NewAuthHandler(log zerolog.Logger) *AuthHandler {
	return &AuthHandler{log: log}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=candidate recruiter client"`
	From     string `json:"from,omitempty"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=candidate recruiter client"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type loginResponse struct {
	Success  bool         `json:"success"`
	User     *domain.User `json:"user,omitempty"`
	Role     domain.Role  `json:"role,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type registerResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type sessionResponse struct {
	User          *domain.User `json:"user"`
	Role          domain.Role  `json:"role,omitempty"`
	Loading       bool         `json:"loading"`
	Authenticated bool         `json:"authenticated"`
}

// Login signs the browser session in.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and optional role"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  loginResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	res := sess.SignIn(c.Request().Context(), req.Email, req.Password, domain.Role(req.Role))
	if !res.Success {
		h.log.Debug().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Msg("sign in rejected")
		return c.JSON(http.StatusUnauthorized, loginResponse{Error: res.Error})
	}

	role := res.User.Role
	return c.JSON(http.StatusOK, loginResponse{
		Success:  true,
		User:     res.User,
		Role:     role,
		Redirect: redirectTarget(req.From, role),
	})
}

// Register creates an account. The session stays signed out.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  registerResponse
// @Failure      409   {object}  registerResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	res := sess.SignUp(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
		Company:  req.Company,
		Phone:    req.Phone,
	})
	switch {
	case res.Success:
		return c.JSON(http.StatusCreated, registerResponse{Success: true, User: res.User})
	case res.Error == service.MsgDuplicateAccount:
		return c.JSON(http.StatusConflict, registerResponse{Error: res.Error})
	default:
		return c.JSON(http.StatusBadRequest, registerResponse{Error: res.Error})
	}
}

// Logout signs the browser session out.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	sess.SignOut(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Session reports the auth state of the browser session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	st := sess.State()
	return c.JSON(http.StatusOK, sessionResponse{
		User:          st.User,
		Role:          st.Role,
		Loading:       st.Loading,
		Authenticated: !st.Loading && st.User != nil,
	})
}

// redirectTarget returns from when it is a local path that is not an auth
// page, the role's home otherwise.
func redirectTarget(from string, role domain.Role) string {
	home := role.HomePath()
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return home
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return home
	}
	switch u.Path {
	case middleware.LoginPath, RegisterPath:
		return home
	}
	return from
}
