package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirelane/portal/internal/infrastructure/identityapi"
)

// Error details, phrased the way the real API phrases them.
const (
	DetailEmailRegistered = "Email already registered"
	DetailClientExists    = "Client already exists"
	DetailBadCredentials  = "Invalid email or password"
	DetailBadClientLogin  = "Invalid client ID or password"
	DetailMissingFields   = "Missing required fields"
	DetailInvalidPayload  = "Invalid request body"
)

// Server issues tokens for accounts held in an AccountRepository.
type Server struct {
	accounts AccountRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
	cost     int
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for token issuance.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the password hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

func NewServer(accounts AccountRepository, secret string, ttl time.Duration, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the Echo instance serving the API.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())

	v1 := e.Group("/v1")
	v1.POST("/candidate/register", s.candidateRegister)
	v1.POST("/candidate/login", s.candidateLogin)
	v1.POST("/client/register", s.clientRegister)
	v1.POST("/client/login", s.clientLogin)
	v1.GET("/me", s.me, requireToken(s.secret, s.now))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return e
}

func detail(msg string) identityapi.ErrorResponse {
	return identityapi.ErrorResponse{Detail: msg}
}

func (s *Server) candidateRegister(c echo.Context) error {
	var req identityapi.CandidateRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail(DetailInvalidPayload))
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusUnprocessableEntity, detail(DetailMissingFields))
	}

	acc, err := s.newAccount(KindCandidate, req.Password)
	if err != nil {
		return err
	}
	acc.Email = email
	acc.Name = req.Name
	acc.Phone = req.Phone

	if err := s.accounts.Create(c.Request().Context(), acc); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return c.JSON(http.StatusConflict, detail(DetailEmailRegistered))
		}
		return err
	}

	s.log.Info().Str("email", email).Int64("candidate_id", acc.CandidateID).Msg("candidate registered")
	return c.JSON(http.StatusOK, identityapi.CandidateRegisterResponse{
		Success:     true,
		CandidateID: json.Number(strconv.FormatInt(acc.CandidateID, 10)),
		Message:     "Registration successful",
	})
}

func (s *Server) candidateLogin(c echo.Context) error {
	var req identityapi.CandidateLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail(DetailInvalidPayload))
	}

	acc, ok := s.authenticate(c, KindCandidate, strings.TrimSpace(req.Email), req.Password)
	if !ok {
		return c.JSON(http.StatusUnauthorized, detail(DetailBadCredentials))
	}

	tok, err := s.issue(acc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identityapi.CandidateLoginResponse{
		Success: true,
		Token:   tok,
		Candidate: &identityapi.CandidateIdentity{
			ID:          acc.ID,
			CandidateID: json.Number(strconv.FormatInt(acc.CandidateID, 10)),
			Email:       acc.Email,
			Name:        acc.Name,
			Role:        string(KindCandidate),
		},
	})
}

func (s *Server) clientRegister(c echo.Context) error {
	var req identityapi.ClientRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail(DetailInvalidPayload))
	}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" || req.Password == "" || req.CompanyName == "" {
		return c.JSON(http.StatusUnprocessableEntity, detail(DetailMissingFields))
	}

	acc, err := s.newAccount(KindClient, req.Password)
	if err != nil {
		return err
	}
	acc.ClientID = clientID
	acc.CompanyName = req.CompanyName
	acc.Email = req.ContactEmail

	if err := s.accounts.Create(c.Request().Context(), acc); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return c.JSON(http.StatusConflict, detail(DetailClientExists))
		}
		return err
	}

	s.log.Info().Str("client_id", clientID).Msg("client registered")
	return c.JSON(http.StatusOK, identityapi.ClientRegisterResponse{
		Success:  true,
		ClientID: clientID,
		Message:  "Client registered successfully",
	})
}

func (s *Server) clientLogin(c echo.Context) error {
	var req identityapi.ClientLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail(DetailInvalidPayload))
	}

	acc, ok := s.authenticate(c, KindClient, strings.TrimSpace(req.ClientID), req.Password)
	if !ok {
		return c.JSON(http.StatusUnauthorized, detail(DetailBadClientLogin))
	}

	tok, err := s.issue(acc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identityapi.ClientLoginResponse{
		Success:     true,
		AccessToken: tok,
		ClientID:    acc.ClientID,
		CompanyName: acc.CompanyName,
	})
}

func (s *Server) me(c echo.Context) error {
	claims, _ := c.Get("claims").(*Claims)
	return c.JSON(http.StatusOK, map[string]string{
		"sub":   claims.Subject,
		"email": claims.Email,
		"role":  claims.Role,
	})
}

func (s *Server) newAccount(kind Kind, password string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:           uuid.NewString(),
		Kind:         kind,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}, nil
}

// authenticate looks the account up and checks the password. Unknown logins
// and wrong passwords are indistinguishable to the caller.
func (s *Server) authenticate(c echo.Context, kind Kind, login, password string) (*Account, bool) {
	if login == "" || password == "" {
		return nil, false
	}
	acc, err := s.accounts.Find(c.Request().Context(), kind, login)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.log.Error().Err(err).Str("kind", string(kind)).Msg("account lookup failed")
		}
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, false
	}
	return acc, true
}

func (s *Server) issue(acc *Account) (string, error) {
	now := s.now()
	claims := Claims{
		Email: acc.Email,
		Role:  string(acc.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
