package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/quizgate/internal/auth"
	"github.com/spec-kit/quizgate/internal/config"
	"github.com/spec-kit/quizgate/internal/domain"
	"github.com/spec-kit/quizgate/internal/events"
	"github.com/spec-kit/quizgate/internal/repository"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes = 72
)

var (
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLoginThrottled is returned when an email exceeded its attempt budget.
	ErrLoginThrottled = errors.New("too many login attempts")
)

// RegisterInput carries signup fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful signup or login.
type Session struct {
	User    *domain.User
	Token   string
	Payload *auth.Payload
}

// AuthService coordinates signup, login and logout flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	hasher     *auth.PasswordHasher
	limiter    *LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	dummyHash  string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Limiter    *LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	TokenOpts  []auth.TokenOption
}

// NewAuthService builds the service. It fails when the signing secret is
// unusable; callers must treat that as fatal.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenLifetime(), deps.TokenOpts...)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	// Unknown emails are checked against this hash so both failure paths
	// spend the same bcrypt time.
	dummyHash, err := hasher.Hash("quizgate-unknown-account")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		users:      deps.UserRepo,
		tokens:     tokens,
		hasher:     hasher,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		dummyHash:  dummyHash,
	}, nil
}

// Register creates a new account and issues its first token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: valid email required", ErrInvalidInput)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, fmt.Errorf("%w: role must be student or instructor", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:            name,
		Email:           email,
		EmailNormalized: domain.NormalizeEmail(email),
		PasswordHash:    hash,
		Role:            role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserRegistered, events.Actor{SubjectID: user.ID, Role: user.Role}, nil)
	return session, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords both yield auth.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	loginPayload := events.LoginPayload{Email: normalized}

	if !s.limiter.Allow(ctx, normalized) {
		s.publish(ctx, events.EventLoginThrottled, events.Actor{}, loginPayload)
		return nil, ErrLoginThrottled
	}

	user, err := s.users.FindByNormalizedEmail(ctx, normalized)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		s.hasher.Verify(password, s.dummyHash)
		s.publish(ctx, events.EventLoginFailed, events.Actor{}, loginPayload)
		return nil, auth.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.publish(ctx, events.EventLoginFailed, events.Actor{SubjectID: user.ID, Role: user.Role}, loginPayload)
		return nil, auth.ErrInvalidCredentials
	}

	s.limiter.Reset(ctx, normalized)
	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventLoginSucceeded, events.Actor{SubjectID: user.ID, Role: user.Role}, loginPayload)
	return session, nil
}

// Logout records the logout. Tokens are stateless, so the caller must also
// clear the client credential.
func (s *AuthService) Logout(ctx context.Context, identity *auth.Identity) {
	actor := events.Actor{}
	if identity != nil {
		actor = events.Actor{SubjectID: identity.SubjectID, Role: identity.Role}
	}
	s.publish(ctx, events.EventLoggedOut, actor, nil)
}

// CurrentUser loads the credential record for an authenticated identity.
func (s *AuthService) CurrentUser(ctx context.Context, identity auth.Identity) (*domain.User, error) {
	return s.users.GetByID(ctx, identity.SubjectID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, payload, err := s.tokens.Mint(auth.Claims{
		SubjectID: user.ID,
		Email:     user.EmailNormalized,
		Role:      user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, Payload: payload}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, actor, payload)); err != nil {
		s.logger.Warn("publish auth event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func validatePassword(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}
