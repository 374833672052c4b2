package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirelane/portal/internal/api/handler"
	"github.com/hirelane/portal/internal/api/middleware"
	"github.com/hirelane/portal/internal/core/service"
	"github.com/hirelane/portal/internal/core/session"
	"github.com/hirelane/portal/internal/core/token"
	"github.com/hirelane/portal/internal/infrastructure/identityapi"
	"github.com/hirelane/portal/internal/infrastructure/memstore"
	"github.com/hirelane/portal/internal/mockapi"
)

// portal wires the real stack against the development API.
type portal struct {
	t       *testing.T
	backend *memstore.Backend
	api     *identityapi.Client
	srv     *httptest.Server
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	mock := httptest.NewServer(mockapi.NewServer(mockapi.NewMemoryAccounts(), "e2e-secret", time.Hour, zerolog.Nop(),
		mockapi.WithBcryptCost(bcrypt.MinCost)).Handler())
	t.Cleanup(mock.Close)

	base, err := url.Parse(mock.URL)
	if err != nil {
		t.Fatalf("parse mock url: %v", err)
	}
	p := &portal{t: t, backend: memstore.NewBackend(), api: identityapi.NewClient(mock.Client(), *base)}
	p.start()
	return p
}

// start (re)starts the portal process over the same session backend.
func (p *portal) start() {
	if p.srv != nil {
		p.srv.Close()
	}
	log := zerolog.Nop()
	codec := token.New(log)
	registry := session.NewRegistry(func(sid string) *session.Provider {
		store := p.backend.Scope(sid)
		return session.NewProvider(service.NewAuthService(p.api, store, codec, log), store, log)
	}, time.Hour, log)

	e := NewRouter(RouterDeps{
		Sessions:  registry,
		Session:   middleware.SessionConfig{CookieName: "sid", BootstrapWait: 2 * time.Second},
		Readiness: map[string]handler.Pinger{"session_store": p.backend},
		Log:       log,
		Metrics:   prometheus.NewRegistry(),
	})
	p.srv = httptest.NewServer(e)
	p.t.Cleanup(p.srv.Close)
}

// browser is one cookie jar; redirects are returned, not followed.
func (p *portal) browser() *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		p.t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (p *portal) do(b *http.Client, method, path, body string) (*http.Response, map[string]any) {
	p.t.Helper()
	req, err := http.NewRequest(method, p.srv.URL+path, strings.NewReader(body))
	if err != nil {
		p.t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.Do(req)
	if err != nil {
		p.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func expect(t *testing.T, resp *http.Response, code int, location string) {
	t.Helper()
	if resp.StatusCode != code {
		t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, code, resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("%s %s: expected location %q, got %q", resp.Request.Method, resp.Request.URL.Path, location, got)
	}
}

func TestPortal_CandidateJourney(t *testing.T) {
	p := newPortal(t)
	b := p.browser()

	resp, body := p.do(b, http.MethodGet, "/auth/session", "")
	expect(t, resp, http.StatusOK, "")
	if body["authenticated"] != false || body["loading"] != false {
		t.Fatalf("fresh session: %+v", body)
	}

	resp, _ = p.do(b, http.MethodGet, "/candidate/dashboard", "")
	expect(t, resp, http.StatusFound, "/login?from=%2Fcandidate%2Fdashboard")

	reg := `{"email":"ann@x.com","password":"secret1","name":"Ann"}`
	resp, _ = p.do(b, http.MethodPost, "/auth/register", reg)
	expect(t, resp, http.StatusCreated, "")

	resp, body = p.do(b, http.MethodPost, "/auth/register", reg)
	expect(t, resp, http.StatusConflict, "")
	if body["error"] != service.MsgDuplicateAccount {
		t.Fatalf("unexpected duplicate message: %v", body["error"])
	}

	resp, _ = p.do(b, http.MethodGet, "/candidate/dashboard", "")
	expect(t, resp, http.StatusFound, "/login?from=%2Fcandidate%2Fdashboard")

	resp, body = p.do(b, http.MethodPost, "/auth/login", `{"email":"ann@x.com","password":"wrong1"}`)
	expect(t, resp, http.StatusUnauthorized, "")
	if body["error"] != mockapi.DetailBadCredentials {
		t.Fatalf("expected the server message verbatim, got %v", body["error"])
	}

	resp, body = p.do(b, http.MethodPost, "/auth/login", `{"email":"ann@x.com","password":"secret1","from":"/candidate/dashboard"}`)
	expect(t, resp, http.StatusOK, "")
	if body["role"] != "candidate" || body["redirect"] != "/candidate/dashboard" {
		t.Fatalf("unexpected login response: %+v", body)
	}

	resp, _ = p.do(b, http.MethodGet, "/candidate/dashboard", "")
	expect(t, resp, http.StatusOK, "")
	resp, _ = p.do(b, http.MethodGet, "/login", "")
	expect(t, resp, http.StatusFound, "/candidate/dashboard")
	resp, _ = p.do(b, http.MethodGet, "/recruiter", "")
	expect(t, resp, http.StatusFound, "/candidate/dashboard")

	// A restarted portal restores the session from the store.
	p.start()
	resp, _ = p.do(b, http.MethodGet, "/candidate/dashboard", "")
	expect(t, resp, http.StatusOK, "")

	resp, _ = p.do(b, http.MethodPost, "/auth/logout", "")
	expect(t, resp, http.StatusOK, "")
	resp, _ = p.do(b, http.MethodGet, "/candidate/dashboard", "")
	expect(t, resp, http.StatusFound, "/login?from=%2Fcandidate%2Fdashboard")
}

func TestPortal_RecruiterOverride(t *testing.T) {
	p := newPortal(t)
	b := p.browser()

	resp, body := p.do(b, http.MethodPost, "/auth/register", `{"email":"hr@acme.com","password":"secret1","name":"Hal","role":"recruiter"}`)
	expect(t, resp, http.StatusCreated, "")
	if user, _ := body["user"].(map[string]any); user["role"] != "recruiter" {
		t.Fatalf("registration must force the recruiter role: %+v", body)
	}

	// The backend only knows candidates; the recruiter role is local.
	resp, body = p.do(b, http.MethodPost, "/auth/login", `{"email":"hr@acme.com","password":"secret1","role":"recruiter"}`)
	expect(t, resp, http.StatusOK, "")
	if body["role"] != "recruiter" || body["redirect"] != "/recruiter" {
		t.Fatalf("unexpected login response: %+v", body)
	}

	resp, _ = p.do(b, http.MethodGet, "/recruiter/jobs", "")
	expect(t, resp, http.StatusOK, "")
	resp, _ = p.do(b, http.MethodGet, "/client", "")
	expect(t, resp, http.StatusFound, "/recruiter")
}

func TestPortal_ClientLoginUsesStoredClientID(t *testing.T) {
	p := newPortal(t)
	b := p.browser()

	resp, body := p.do(b, http.MethodPost, "/auth/register", `{"email":"ops@acme.com","password":"secret1","name":"Ops","role":"client","company":"Acme"}`)
	expect(t, resp, http.StatusCreated, "")
	user, _ := body["user"].(map[string]any)
	clientID, _ := user["id"].(string)
	if !strings.HasPrefix(clientID, "ops_") {
		t.Fatalf("unexpected client id %q", clientID)
	}

	login := `{"email":"ops@acme.com","password":"secret1","role":"client"}`
	for i := 0; i < 2; i++ {
		resp, body = p.do(b, http.MethodPost, "/auth/login", login)
		expect(t, resp, http.StatusOK, "")
		if body["role"] != "client" || body["redirect"] != "/client" {
			t.Fatalf("attempt %d: unexpected login response: %+v", i, body)
		}
		resp, _ = p.do(b, http.MethodGet, "/client", "")
		expect(t, resp, http.StatusOK, "")

		// Logging out keeps the client id for the next login.
		resp, _ = p.do(b, http.MethodPost, "/auth/logout", "")
		expect(t, resp, http.StatusOK, "")
	}
}

func TestPortal_OperationalEndpoints(t *testing.T) {
	p := newPortal(t)
	b := p.browser()

	resp, _ := p.do(b, http.MethodGet, "/health", "")
	expect(t, resp, http.StatusOK, "")
	if len(resp.Cookies()) != 0 {
		t.Fatalf("health probes must not start sessions")
	}
	resp, body := p.do(b, http.MethodGet, "/health/ready", "")
	expect(t, resp, http.StatusOK, "")
	if body["status"] != "ok" {
		t.Fatalf("unexpected readiness: %+v", body)
	}
	resp, _ = p.do(b, http.MethodGet, "/metrics", "")
	expect(t, resp, http.StatusOK, "")
	resp, _ = p.do(b, http.MethodGet, "/", "")
	expect(t, resp, http.StatusOK, "")
}
