package identityapi

import "encoding/json"

// Wire shapes of the remote recruitment API. The development stand-in in
// internal/mockapi serves the same structs.

type CandidateLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CandidateIdentity struct {
	ID          string      `json:"id"`
	CandidateID json.Number `json:"candidate_id,omitempty"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Role        string      `json:"role,omitempty"`
}

// CandidateLoginResponse carries the identity under "candidate" or, on older
// deployments, under "user".
type CandidateLoginResponse struct {
	Success   bool               `json:"success"`
	Token     string             `json:"token,omitempty"`
	Candidate *CandidateIdentity `json:"candidate,omitempty"`
	User      *CandidateIdentity `json:"user,omitempty"`
	Message   string             `json:"message,omitempty"`
}

type CandidateRegisterRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	ExperienceYears int      `json:"experience_years"`
	Skills          []string `json:"skills"`
	Education       string   `json:"education"`
}

type CandidateRegisterResponse struct {
	Success     bool        `json:"success"`
	CandidateID json.Number `json:"candidate_id,omitempty"`
	Message     string      `json:"message,omitempty"`
}

type ClientLoginRequest struct {
	ClientID string `json:"client_id"`
	Password string `json:"password"`
}

type ClientLoginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Message     string `json:"message,omitempty"`
}

type ClientRegisterRequest struct {
	ClientID     string `json:"client_id"`
	CompanyName  string `json:"company_name"`
	ContactEmail string `json:"contact_email"`
	Password     string `json:"password"`
}

type ClientRegisterResponse struct {
	Success  bool   `json:"success"`
	ClientID string `json:"client_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ErrorResponse covers the error envelopes the API has used over time.
type ErrorResponse struct {
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e ErrorResponse) text() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Error != "":
		return e.Error
	default:
		return e.Message
	}
}
