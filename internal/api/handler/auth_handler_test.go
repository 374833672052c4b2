package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api/middleware"
	"github.com/hirelane/portal/internal/core/domain"
	"github.com/hirelane/portal/internal/core/ports"
	"github.com/hirelane/portal/internal/core/service"
	"github.com/hirelane/portal/internal/infrastructure/memstore"
)

type stubSession struct {
	state     ports.SessionState
	signInFn  func(ctx context.Context, email, password string, role domain.Role) ports.LoginResult
	signUpFn  func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult
	signedOut bool
}

func (s *stubSession) State() ports.SessionState { return s.state }

func (s *stubSession) SignIn(ctx context.Context, email, password string, role domain.Role) ports.LoginResult {
	return s.signInFn(ctx, email, password, role)
}

func (s *stubSession) SignUp(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
	return s.signUpFn(ctx, in)
}

func (s *stubSession) SignOut(context.Context) { s.signedOut = true }

func (s *stubSession) Store() ports.SessionStore { return memstore.New() }

func newContext(method, target, body string, sess ports.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set(middleware.ContextKeySession, sess)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Login_Success(t *testing.T) {
	sess := &stubSession{
		signInFn: func(_ context.Context, email, password string, role domain.Role) ports.LoginResult {
			if email != "hr@acme.com" || password != "secret1" || role != domain.RoleRecruiter {
				t.Fatalf("unexpected args: %s %s %s", email, password, role)
			}
			return ports.LoginResult{Success: true, Token: "tok", User: &domain.User{ID: "7", Email: email, Role: domain.RoleRecruiter}}
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"hr@acme.com","password":"secret1","role":"recruiter"}`, sess)

	if err := NewAuthHandler(zerolog.Nop()).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != true || resp["role"] != "recruiter" || resp["redirect"] != "/recruiter" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["token"]; ok {
		t.Fatalf("token must not be sent to the browser")
	}
}

func TestAuthHandler_Login_HonoursSafeFrom(t *testing.T) {
	sess := &stubSession{
		signInFn: func(context.Context, string, string, domain.Role) ports.LoginResult {
			return ports.LoginResult{Success: true, User: &domain.User{ID: "1", Role: domain.RoleCandidate}}
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"pw","from":"/candidate/jobs?page=2"}`, sess)

	if err := NewAuthHandler(zerolog.Nop()).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := decode(t, rec)["redirect"]; got != "/candidate/jobs?page=2" {
		t.Fatalf("expected the preserved location, got %v", got)
	}
}

func TestAuthHandler_Login_Failure(t *testing.T) {
	sess := &stubSession{
		signInFn: func(context.Context, string, string, domain.Role) ports.LoginResult {
			return ports.LoginResult{Error: "Invalid email or password"}
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"bad"}`, sess)

	_ = NewAuthHandler(zerolog.Nop()).Login(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != false || resp["error"] != "Invalid email or password" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	sess := &stubSession{
		signInFn: func(context.Context, string, string, domain.Role) ports.LoginResult {
			t.Fatalf("should not be called")
			return ports.LoginResult{}
		},
	}
	for _, body := range []string{"not-json", `{"email":"nope","password":"x"}`, `{"email":"a@x.com","password":"x","role":"admin"}`} {
		c, rec := newContext(http.MethodPost, "/auth/login", body, sess)
		_ = NewAuthHandler(zerolog.Nop()).Login(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthHandler_Register(t *testing.T) {
	cases := []struct {
		name   string
		result ports.RegisterResult
		want   int
	}{
		{"created", ports.RegisterResult{Success: true, User: &domain.User{Email: "a@x.com", Role: domain.RoleClient}}, http.StatusCreated},
		{"duplicate", ports.RegisterResult{Error: service.MsgDuplicateAccount}, http.StatusConflict},
		{"rejected", ports.RegisterResult{Error: service.MsgRegisterFailed}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &stubSession{
				signUpFn: func(_ context.Context, in ports.RegisterInput) ports.RegisterResult {
					if in.Role != domain.RoleClient || in.Company != "Acme" {
						t.Fatalf("unexpected input: %+v", in)
					}
					return tc.result
				},
			}
			body := `{"email":"a@x.com","password":"secret1","name":"Ann","role":"client","company":"Acme"}`
			c, rec := newContext(http.MethodPost, "/auth/register", body, sess)

			if err := NewAuthHandler(zerolog.Nop()).Register(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	sess := &stubSession{
		signUpFn: func(context.Context, ports.RegisterInput) ports.RegisterResult {
			t.Fatalf("should not be called")
			return ports.RegisterResult{}
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/register", `{"email":"a@x.com","password":"123","name":"Ann"}`, sess)

	_ = NewAuthHandler(zerolog.Nop()).Register(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg, _ := decode(t, rec)["error"].(string); !strings.Contains(msg, "password must be at least 6") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthHandler_LogoutAndSession(t *testing.T) {
	sess := &stubSession{state: ports.SessionState{User: &domain.User{ID: "1", Role: domain.RoleClient}, Role: domain.RoleClient}}
	h := NewAuthHandler(zerolog.Nop())

	c, rec := newContext(http.MethodGet, "/auth/session", "", sess)
	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["authenticated"] != true || resp["role"] != "client" || resp["loading"] != false {
		t.Fatalf("unexpected session payload: %+v", resp)
	}

	c, rec = newContext(http.MethodPost, "/auth/logout", "", sess)
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !sess.signedOut {
		t.Fatalf("expected sign out, code=%d", rec.Code)
	}
}

func TestAuthHandler_Session_LoadingIsNotAuthenticated(t *testing.T) {
	sess := &stubSession{state: ports.SessionState{Loading: true}}
	c, rec := newContext(http.MethodGet, "/auth/session", "", sess)
	_ = NewAuthHandler(zerolog.Nop()).Session(c)

	resp := decode(t, rec)
	if resp["authenticated"] != false || resp["loading"] != true || resp["user"] != nil {
		t.Fatalf("unexpected session payload: %+v", resp)
	}
}

func TestAuthHandler_MissingSession(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/auth/session", "", nil)
	err := NewAuthHandler(zerolog.Nop()).Session(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 HTTPError, got %v", err)
	}
}

func TestRedirectTarget(t *testing.T) {
	cases := []struct {
		from string
		role domain.Role
		want string
	}{
		{"", domain.RoleClient, "/client"},
		{"/client/reports", domain.RoleClient, "/client/reports"},
		{"https://evil.example/x", domain.RoleCandidate, "/candidate/dashboard"},
		{"//evil.example", domain.RoleCandidate, "/candidate/dashboard"},
		{`/\evil.example`, domain.RoleCandidate, "/candidate/dashboard"},
		{"/login?from=/x", domain.RoleRecruiter, "/recruiter"},
		{"/register", domain.RoleRecruiter, "/recruiter"},
		{"relative", domain.Role("admin"), "/"},
	}
	for _, tc := range cases {
		if got := redirectTarget(tc.from, tc.role); got != tc.want {
			t.Fatalf("redirectTarget(%q, %s) = %q, want %q", tc.from, tc.role, got, tc.want)
		}
	}
}
