package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api/metrics"
	"github.com/hirelane/portal/internal/core/domain"
	"github.com/hirelane/portal/internal/core/ports"
	"github.com/hirelane/portal/internal/core/token"
)

// User-facing messages. Forms display them verbatim.
const (
	MsgMissingCredentials = "Email and password are required."
	MsgLoginFailed        = "Login failed. Please check your credentials and try again."
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgDuplicateAccount   = "An account with this email already exists. Please sign in instead."
	MsgSessionNotSaved    = "Signed in, but the session could not be saved. Please try again."
	MsgUnusableToken      = "The server returned an unusable session token."
)

// duplicatePhrases are the ways the backend has reported an existing account.
var duplicatePhrases = []string{"already registered", "already exists", "duplicate"}

// TokenValidator is the part of the token codec the service needs.
type TokenValidator interface {
	Decode(raw string) (*token.Claims, error)
	Check(raw string) error
}

// AuthService hides the backend's two identity concepts behind one
// three-role contract and keeps the browser's Session Store in step.
type AuthService struct {
	api   ports.IdentityAPI
	store ports.SessionStore
	codec TokenValidator
	now   func() time.Time
	log   zerolog.Logger
}

// Option customizes an AuthService.
type Option func(*AuthService)

// WithClock replaces time.Now, used for client id generation.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(api ports.IdentityAPI, store ports.SessionStore, codec TokenValidator, log zerolog.Logger, opts ...Option) *AuthService {
	s := &AuthService{api: api, store: store, codec: codec, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login tries the client endpoint first when the resolved role is client and a
// client id was stored at registration, then the generic endpoint.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) ports.LoginResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ports.LoginResult{Error: MsgMissingCredentials}
	}

	resolved := domain.ResolveRole(role, "", s.storedRole(ctx))
	log := s.log.With().Str("email", email).Str("role", resolved.String()).Logger()

	if resolved == domain.RoleClient {
		if res, ok := s.loginClient(ctx, email, password, log); ok {
			return res
		}
	}
	return s.loginGeneric(ctx, email, password, resolved, log)
}

func (s *AuthService) loginClient(ctx context.Context, email, password string, log zerolog.Logger) (ports.LoginResult, bool) {
	clientID := s.get(ctx, ports.KeyClientID)
	if clientID == "" {
		metrics.LoginTotal.WithLabelValues(domain.RoleClient.String(), "client", "skipped").Inc()
		log.Debug().Msg("no stored client id, using generic login")
		return ports.LoginResult{}, false
	}
	log = log.With().Str("client_id", clientID).Logger()

	resp, err := s.api.ClientLogin(ctx, ports.ClientLoginRequest{ClientID: clientID, Password: password})
	if err == nil && (!resp.Success || resp.AccessToken == "") {
		err = fmt.Errorf("client login rejected: %s", resp.Message)
	}
	if err != nil {
		metrics.LoginTotal.WithLabelValues(domain.RoleClient.String(), "client", "failure").Inc()
		log.Warn().Err(err).Msg("client login failed, falling back to generic login")
		return ports.LoginResult{}, false
	}

	id := firstNonEmpty(resp.ClientID, clientID)
	user := &domain.User{
		ID:      id,
		Email:   email,
		Name:    resp.CompanyName,
		Role:    domain.RoleClient,
		Company: resp.CompanyName,
	}
	if err := s.persist(ctx, resp.AccessToken, user, entry{ports.KeyClientID, id}); err != nil {
		metrics.LoginTotal.WithLabelValues(domain.RoleClient.String(), "client", "failure").Inc()
		log.Warn().Err(err).Msg("client session not persisted, falling back to generic login")
		return ports.LoginResult{}, false
	}

	metrics.LoginTotal.WithLabelValues(domain.RoleClient.String(), "client", "success").Inc()
	log.Info().Msg("client logged in")
	return ports.LoginResult{Success: true, Token: resp.AccessToken, User: user}, true
}

func (s *AuthService) loginGeneric(ctx context.Context, email, password string, resolved domain.Role, log zerolog.Logger) ports.LoginResult {
	fail := func(msg string) ports.LoginResult {
		metrics.LoginTotal.WithLabelValues(resolved.String(), "generic", "failure").Inc()
		return ports.LoginResult{Error: msg}
	}

	resp, err := s.api.CandidateLogin(ctx, ports.CandidateLoginRequest{Email: email, Password: password})
	if err != nil {
		log.Warn().Err(err).Msg("login failed")
		return fail(apiMessage(err, MsgLoginFailed))
	}
	if !resp.Success || resp.Token == "" {
		log.Warn().Str("message", resp.Message).Msg("login rejected")
		return fail(firstNonEmpty(resp.Message, MsgLoginFailed))
	}

	claims, err := s.codec.Decode(resp.Token)
	if err != nil {
		log.Warn().Err(err).Msg("login returned a malformed token")
		return fail(MsgUnusableToken)
	}
	user := genericUser(resp.Identity, email, resolved, claims)

	var extra []entry
	if resp.Identity != nil && resp.Identity.CandidateID != "" {
		extra = append(extra, entry{ports.KeyCandidateID, resp.Identity.CandidateID})
	}
	if err := s.persist(ctx, resp.Token, user, extra...); err != nil {
		log.Error().Err(err).Msg("session not persisted")
		if errors.Is(err, token.ErrExpired) || errors.Is(err, token.ErrNoExpiry) {
			return fail(MsgUnusableToken)
		}
		return fail(MsgSessionNotSaved)
	}

	metrics.LoginTotal.WithLabelValues(resolved.String(), "generic", "success").Inc()
	log.Info().Str("user_role", user.Role.String()).Msg("logged in")
	return ports.LoginResult{Success: true, Token: resp.Token, User: user}
}

// genericUser normalizes the generic identity. The backend has no recruiter
// concept, so a locally resolved recruiter always overrides what it returns.
func genericUser(id *ports.Identity, email string, resolved domain.Role, claims *token.Claims) *domain.User {
	user := &domain.User{Email: email}
	var backendRole domain.Role
	if id != nil {
		user.ID = firstNonEmpty(id.ID, id.CandidateID)
		user.Email = firstNonEmpty(id.Email, email)
		user.Name = id.Name
		backendRole = domain.Role(id.Role)
	}
	if user.ID == "" && claims != nil {
		user.ID = claims.Subject
	}

	switch {
	case resolved == domain.RoleRecruiter:
		user.Role = domain.RoleRecruiter
	case backendRole.Valid():
		user.Role = backendRole
	case claims != nil && domain.Role(claims.Role).Valid():
		user.Role = domain.Role(claims.Role)
	default:
		user.Role = domain.DefaultRole
	}
	return user
}

type entry struct {
	key, value string
}

// persist writes a fresh session. Old auth keys go first so a concurrent
// reader never pairs the new user with the old token; the token is written
// last so its presence implies user and role are already in place.
func (s *AuthService) persist(ctx context.Context, raw string, user *domain.User, extra ...entry) error {
	if err := s.codec.Check(raw); err != nil {
		return fmt.Errorf("check session token: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.store.Clear(ctx, true); err != nil {
		return fmt.Errorf("clear previous session: %w", err)
	}

	writes := make([]entry, 0, len(extra)+4)
	writes = append(writes, entry{ports.KeyUser, string(data)}, entry{ports.KeyRole, user.Role.String()})
	writes = append(writes, extra...)
	writes = append(writes, entry{ports.KeyAuthenticated, "true"}, entry{ports.KeyToken, raw})

	for _, w := range writes {
		if err := s.store.Set(ctx, w.key, w.value); err != nil {
			_ = s.store.Clear(ctx, true)
			return fmt.Errorf("persist %s: %w", w.key, err)
		}
	}
	return nil
}

// Register creates an account without signing in; the caller performs a
// separate Login afterwards.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" {
		return ports.RegisterResult{Error: MsgMissingCredentials}
	}

	role := domain.ResolveRole(in.Role, "", "")
	log := s.log.With().Str("email", in.Email).Str("role", role.String()).Logger()

	var res ports.RegisterResult
	if role == domain.RoleClient {
		res = s.registerClient(ctx, in, log)
	} else {
		res = s.registerGeneric(ctx, in, role, log)
	}

	result := "success"
	switch {
	case res.Error == MsgDuplicateAccount:
		result = "duplicate"
	case !res.Success:
		result = "failure"
	}
	metrics.RegisterTotal.WithLabelValues(role.String(), result).Inc()
	return res
}

func (s *AuthService) registerClient(ctx context.Context, in ports.RegisterInput, log zerolog.Logger) ports.RegisterResult {
	clientID := GenerateClientID(in.Email, s.now())
	company := strings.TrimSpace(in.Company)
	if company == "" {
		company = fmt.Sprintf("%s's Company", firstNonEmpty(in.Name, localPart(in.Email)))
	}
	log = log.With().Str("client_id", clientID).Logger()

	resp, err := s.api.ClientRegister(ctx, ports.ClientRegisterRequest{
		ClientID:     clientID,
		CompanyName:  company,
		ContactEmail: in.Email,
		Password:     in.Password,
	})
	if err != nil {
		log.Warn().Err(err).Msg("client registration failed")
		return ports.RegisterResult{Error: registrationMessage(err, "")}
	}
	if !resp.Success {
		log.Warn().Str("message", resp.Message).Msg("client registration rejected")
		return ports.RegisterResult{Error: registrationMessage(nil, resp.Message)}
	}

	id := firstNonEmpty(resp.ClientID, clientID)
	if err := s.store.Set(ctx, ports.KeyClientID, id); err != nil {
		log.Warn().Err(err).Msg("client id not stored, next login will use the generic endpoint")
	}

	log.Info().Msg("client registered")
	return ports.RegisterResult{
		Success: true,
		User: &domain.User{
			ID:      id,
			Email:   in.Email,
			Name:    in.Name,
			Role:    domain.RoleClient,
			Company: company,
		},
	}
}

// registerGeneric serves candidates and recruiters; the backend only knows
// candidates, so fields the recruiter form lacks go out empty.
func (s *AuthService) registerGeneric(ctx context.Context, in ports.RegisterInput, role domain.Role, log zerolog.Logger) ports.RegisterResult {
	resp, err := s.api.CandidateRegister(ctx, ports.CandidateRegisterRequest{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
		Phone:    in.Phone,
		Skills:   []string{},
	})
	if err != nil {
		log.Warn().Err(err).Msg("registration failed")
		return ports.RegisterResult{Error: registrationMessage(err, "")}
	}
	if !resp.Success {
		log.Warn().Str("message", resp.Message).Msg("registration rejected")
		return ports.RegisterResult{Error: registrationMessage(nil, resp.Message)}
	}

	log.Info().Str("candidate_id", resp.CandidateID).Msg("registered")
	return ports.RegisterResult{
		Success: true,
		User: &domain.User{
			ID:    resp.CandidateID,
			Email: in.Email,
			Name:  in.Name,
			Role:  role,
		},
	}
}

// Logout drops the auth keys; the stored client id survives.
func (s *AuthService) Logout(ctx context.Context) {
	if err := s.store.Clear(ctx, true); err != nil {
		s.log.Error().Err(err).Msg("logout: clear session store")
		return
	}
	s.log.Debug().Msg("logged out")
}

// IsAuthenticated reports whether a decodable, unexpired token is stored.
func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	raw := s.get(ctx, ports.KeyToken)
	if raw == "" {
		return false
	}
	return s.codec.Check(raw) == nil
}

// GetUserData returns the stored user, or nil when absent or unreadable.
func (s *AuthService) GetUserData(ctx context.Context) *domain.User {
	raw := s.get(ctx, ports.KeyUser)
	if raw == "" {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.log.Warn().Err(err).Msg("stored user record unreadable")
		return nil
	}
	if user.Role == "" {
		user.Role = s.storedRole(ctx)
	}
	return &user
}

// StoredRole returns the persisted role, or "" when none is stored.
func (s *AuthService) StoredRole(ctx context.Context) domain.Role {
	return s.storedRole(ctx)
}

func (s *AuthService) storedRole(ctx context.Context) domain.Role {
	r, _ := domain.ParseRole(s.get(ctx, ports.KeyRole))
	if !r.Valid() {
		return ""
	}
	return r
}

func (s *AuthService) get(ctx context.Context, key string) string {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("session store read failed")
		return ""
	}
	return v
}

// GenerateClientID derives a client id from the email's local part and a
// millisecond timestamp, e.g. "jane_doe_1767225600000".
func GenerateClientID(email string, now time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(localPart(email)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	base := strings.Trim(b.String(), "_")
	if base == "" {
		base = "client"
	}
	return base + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// apiMessage surfaces a server-provided validation message, or fallback for
// transport failures and bare status codes.
func apiMessage(err error, fallback string) string {
	var apiErr *ports.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < http.StatusInternalServerError {
		return apiErr.Message
	}
	return fallback
}

// registrationMessage maps a failed registration to the form message.
// Either err or the rejection message of a 2xx answer is set.
func registrationMessage(err error, message string) string {
	var apiErr *ports.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusConflict {
			return MsgDuplicateAccount
		}
		message = apiErr.Message
	}
	if isDuplicate(message) {
		return MsgDuplicateAccount
	}
	if err != nil {
		return apiMessage(err, MsgRegisterFailed)
	}
	return firstNonEmpty(message, MsgRegisterFailed)
}

func isDuplicate(message string) bool {
	m := strings.ToLower(message)
	for _, p := range duplicatePhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
