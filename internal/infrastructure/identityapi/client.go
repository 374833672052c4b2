// Package identityapi talks to the remote recruitment API's login and
// registration endpoints.
package identityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hirelane/portal/internal/core/ports"
)

const maxErrorBody = 64 << 10

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.IdentityAPI over HTTP.
type Client struct {
	client  httpClient
	baseURL url.URL
}

func NewClient(client httpClient, baseURL url.URL) *Client {
	return &Client{client: client, baseURL: baseURL}
}

func (c *Client) CandidateLogin(ctx context.Context, in ports.CandidateLoginRequest) (*ports.CandidateLoginResponse, error) {
	var resp CandidateLoginResponse
	if err := c.post(ctx, "v1/candidate/login", CandidateLoginRequest{Email: in.Email, Password: in.Password}, &resp); err != nil {
		return nil, err
	}

	identity := resp.Candidate
	if identity == nil {
		identity = resp.User
	}
	out := &ports.CandidateLoginResponse{Success: resp.Success, Token: resp.Token, Message: resp.Message}
	if identity != nil {
		out.Identity = &ports.Identity{
			ID:          identity.ID,
			CandidateID: identity.CandidateID.String(),
			Email:       identity.Email,
			Name:        identity.Name,
			Role:        identity.Role,
		}
	}
	return out, nil
}

func (c *Client) CandidateRegister(ctx context.Context, in ports.CandidateRegisterRequest) (*ports.CandidateRegisterResponse, error) {
	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	req := CandidateRegisterRequest{
		Email:           in.Email,
		Password:        in.Password,
		Name:            in.Name,
		Phone:           in.Phone,
		Location:        in.Location,
		ExperienceYears: in.ExperienceYears,
		Skills:          skills,
		Education:       in.Education,
	}

	var resp CandidateRegisterResponse
	if err := c.post(ctx, "v1/candidate/register", req, &resp); err != nil {
		return nil, err
	}
	return &ports.CandidateRegisterResponse{
		Success:     resp.Success,
		CandidateID: resp.CandidateID.String(),
		Message:     resp.Message,
	}, nil
}

func (c *Client) ClientLogin(ctx context.Context, in ports.ClientLoginRequest) (*ports.ClientLoginResponse, error) {
	var resp ClientLoginResponse
	if err := c.post(ctx, "v1/client/login", ClientLoginRequest{ClientID: in.ClientID, Password: in.Password}, &resp); err != nil {
		return nil, err
	}
	return &ports.ClientLoginResponse{
		Success:     resp.Success,
		AccessToken: resp.AccessToken,
		ClientID:    resp.ClientID,
		CompanyName: resp.CompanyName,
		Message:     resp.Message,
	}, nil
}

func (c *Client) ClientRegister(ctx context.Context, in ports.ClientRegisterRequest) (*ports.ClientRegisterResponse, error) {
	req := ClientRegisterRequest{
		ClientID:     in.ClientID,
		CompanyName:  in.CompanyName,
		ContactEmail: in.ContactEmail,
		Password:     in.Password,
	}

	var resp ClientRegisterResponse
	if err := c.post(ctx, "v1/client/register", req, &resp); err != nil {
		return nil, err
	}
	return &ports.ClientRegisterResponse{Success: resp.Success, ClientID: resp.ClientID, Message: resp.Message}, nil
}

// post sends body as JSON and decodes a 2xx answer into out. Non-2xx answers
// become *ports.APIError; failures to get any answer wrap ports.ErrTransport.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ports.ErrTransport, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env ErrorResponse
		_ = json.Unmarshal(raw, &env)
		return &ports.APIError{Status: resp.StatusCode, Message: env.text()}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ports.ErrTransport, path, err)
	}
	return nil
}
