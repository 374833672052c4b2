package ports

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransport marks failures to reach the remote API at all.
var ErrTransport = errors.New("identity api unreachable")

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity api: status %d", e.Status)
	}
	return fmt.Sprintf("identity api: status %d: %s", e.Status, e.Message)
}

// Identity is the user object returned by the generic login endpoint. Role is
// empty when the backend does not send one.
type Identity struct {
	ID          string
	CandidateID string
	Email       string
	Name        string
	Role        string
}

type CandidateLoginRequest struct {
	Email    string
	Password string
}

type CandidateLoginResponse struct {
	Success  bool
	Token    string
	Identity *Identity
	Message  string
}

// CandidateRegisterRequest carries the generic registration payload. Fields
// the recruiter form does not collect are sent as empty or zero values.
type CandidateRegisterRequest struct {
	Email           string
	Password        string
	Name            string
	Phone           string
	Location        string
	ExperienceYears int
	Skills          []string
	Education       string
}

type CandidateRegisterResponse struct {
	Success     bool
	CandidateID string
	Message     string
}

type ClientLoginRequest struct {
	ClientID string
	Password string
}

type ClientLoginResponse struct {
	Success     bool
	AccessToken string
	ClientID    string
	CompanyName string
	Message     string
}

type ClientRegisterRequest struct {
	ClientID     string
	CompanyName  string
	ContactEmail string
	Password     string
}

type ClientRegisterResponse struct {
	Success  bool
	ClientID string
	Message  string
}

// IdentityAPI is the remote recruitment API as seen by the Auth Service.
// Candidates and recruiters share the candidate endpoints; clients have their
// own identifier scheme.
type IdentityAPI interface {
	CandidateLogin(ctx context.Context, req CandidateLoginRequest) (*CandidateLoginResponse, error)
	CandidateRegister(ctx context.Context, req CandidateRegisterRequest) (*CandidateRegisterResponse, error)
	ClientLogin(ctx context.Context, req ClientLoginRequest) (*ClientLoginResponse, error)
	ClientRegister(ctx context.Context, req ClientRegisterRequest) (*ClientRegisterResponse, error)
}
