package identityapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hirelane/portal/internal/core/ports"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return NewClient(srv.Client(), *u)
}

func TestClient_CandidateLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/candidate/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req CandidateLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Email != "a@x.com" || req.Password != "secret1" {
			t.Fatalf("unexpected body: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"token":"t.t.t","candidate":{"id":"u1","candidate_id":17,"email":"a@x.com","name":"A"}}`))
	})

	resp, err := c.CandidateLogin(context.Background(), ports.CandidateLoginRequest{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !resp.Success || resp.Token != "t.t.t" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Identity == nil || resp.Identity.CandidateID != "17" || resp.Identity.Role != "" {
		t.Fatalf("unexpected identity: %+v", resp.Identity)
	}
}

func TestClient_CandidateLogin_UserEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"token":"t.t.t","user":{"id":"u2","email":"b@x.com","role":"candidate"}}`))
	})

	resp, err := c.CandidateLogin(context.Background(), ports.CandidateLoginRequest{Email: "b@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Identity == nil || resp.Identity.ID != "u2" || resp.Identity.Role != "candidate" {
		t.Fatalf("expected identity from user envelope, got %+v", resp.Identity)
	}
}

func TestClient_CandidateRegister_SendsDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		skills, ok := raw["skills"].([]any)
		if !ok || len(skills) != 0 {
			t.Fatalf("expected empty skills array, got %v", raw["skills"])
		}
		if raw["experience_years"] != float64(0) || raw["location"] != "" {
			t.Fatalf("expected zero defaults, got %v", raw)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"candidate_id":99}`))
	})

	resp, err := c.CandidateRegister(context.Background(), ports.CandidateRegisterRequest{Email: "r@x.com", Password: "pw", Name: "R"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !resp.Success || resp.CandidateID != "99" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClient_ClientLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/client/login" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"access_token":"c.c.c","client_id":"acme_1","company_name":"Acme"}`))
	})

	resp, err := c.ClientLogin(context.Background(), ports.ClientLoginRequest{ClientID: "acme_1", Password: "pw"})
	if err != nil {
		t.Fatalf("client login: %v", err)
	}
	if resp.AccessToken != "c.c.c" || resp.CompanyName != "Acme" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClient_ErrorStatusBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
	})

	_, err := c.CandidateRegister(context.Background(), ports.CandidateRegisterRequest{Email: "dup@x.com"})
	var apiErr *ports.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "Email already registered" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	srv.Close()

	c := NewClient(http.DefaultClient, *u)
	_, err := c.ClientRegister(context.Background(), ports.ClientRegisterRequest{ClientID: "x"})
	if !errors.Is(err, ports.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}
