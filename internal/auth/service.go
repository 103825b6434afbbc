package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	"github.com/greenleaf-shop/server/internal/storage/jsonfile"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Service registers users, logs them in and resolves bearer tokens.
type Service struct {
	users  *jsonfile.Collection[account]
	tokens TokenStore
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now; tests use it to move across expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewUserCollection opens the users collection at path ("" keeps it in memory).
func NewUserCollection(path string) *jsonfile.Collection[account] {
	if path == "" {
		return jsonfile.NewMemory[account]()
	}
	return jsonfile.New[account](path)
}

func NewService(users *jsonfile.Collection[account], tokens TokenStore, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and issues its first token.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, Token, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return User{}, Token{}, errx.InvalidInput("name, email, and password are required")
	}

	var (
		created account
		token   Token
	)
	// A failed token save aborts the write, so no user is stored without one.
	err := s.users.Update(func(items []account) ([]account, error) {
		for _, a := range items {
			if a.Email == email {
				return nil, errx.DuplicateUser("user already exists")
			}
		}
		created = account{
			User: User{
				ID:        uuid.NewString(),
				Name:      name,
				Email:     email,
				CreatedAt: s.now().UTC(),
			},
			Password: password,
		}
		var err error
		if token, err = s.issue(ctx, created.ID); err != nil {
			return nil, err
		}
		return append(items, created), nil
	})
	if err != nil {
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			return User{}, Token{}, err
		}
		logx.Error().Err(err).Str("email", email).Msg("failed to persist user")
		return User{}, Token{}, errx.Internal(err)
	}

	logx.Info().Str("user_id", created.ID).Msg("user registered")
	return created.User, token, nil
}

// Login checks the credentials and issues a new token. Earlier tokens of the
// same user stay valid until their own expiry.
func (s *Service) Login(ctx context.Context, email, password string) (User, Token, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, Token{}, errx.InvalidInput("email and password are required")
	}

	acc, ok, err := s.users.Find(func(a account) bool {
		return a.Email == email && a.Password == password
	})
	if err != nil {
		logx.Error().Err(err).Msg("failed to load users")
		return User{}, Token{}, errx.Internal(err)
	}
	if !ok {
		logx.Debug().Str("email", email).Msg("login rejected")
		return User{}, Token{}, errx.InvalidCredentials("invalid email or password")
	}

	token, err := s.issue(ctx, acc.ID)
	if err != nil {
		return User{}, Token{}, err
	}
	return acc.User, token, nil
}

// ResolveToken returns the owner of a token that exists and has not expired.
func (s *Service) ResolveToken(ctx context.Context, value string) (User, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return User{}, errx.Unauthenticated("token required")
	}

	t, err := s.tokens.Lookup(ctx, value)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return User{}, errx.Unauthenticated("invalid or expired token")
		}
		return User{}, err
	}
	if !t.Valid(s.now()) {
		return User{}, errx.Unauthenticated("invalid or expired token")
	}

	return s.UserByID(ctx, t.UserID)
}

// UserByID returns the user with id or NotFound.
func (s *Service) UserByID(_ context.Context, id string) (User, error) {
	acc, ok, err := s.users.Find(func(a account) bool { return a.ID == id })
	if err != nil {
		return User{}, errx.Internal(err)
	}
	if !ok {
		return User{}, errx.NotFound("user not found")
	}
	return acc.User, nil
}

// UserByIdentifier resolves a caller-supplied user identifier, which may be
// either the user id or the email address.
func (s *Service) UserByIdentifier(_ context.Context, ident string) (User, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return User{}, errx.Unauthenticated("user not authenticated")
	}
	email := normalizeEmail(ident)

	acc, ok, err := s.users.Find(func(a account) bool {
		return a.ID == ident || a.Email == email
	})
	if err != nil {
		return User{}, errx.Internal(err)
	}
	if !ok {
		return User{}, errx.Unauthenticated("user not found")
	}
	return acc.User, nil
}

func (s *Service) issue(ctx context.Context, userID string) (Token, error) {
	value, err := newTokenValue()
	if err != nil {
		return Token{}, errx.Internal(fmt.Errorf("generate token: %w", err))
	}
	t := Token{
		Value:     value,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.tokens.Save(ctx, t); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to save token")
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			return Token{}, err
		}
		return Token{}, errx.Internal(err)
	}
	return t, nil
}
