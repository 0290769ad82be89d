package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/password"
	"github.com/linkyoself/linkyoself/internal/app/repository"
	"github.com/linkyoself/linkyoself/internal/app/token"
)

const tokenTypeBearer = "bearer"

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AccessToken is the result of a refresh.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RegisterInput captures data required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthService manages accounts, credentials and the access/refresh token lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, identifier, plain string) (*model.User, error)
	IssueTokens(ctx context.Context, user *model.User) (*TokenPair, error)
	Login(ctx context.Context, identifier, plain string) (*TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string) (*AccessToken, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID uint) error
	Logout(ctx context.Context, userID uint, refreshToken string) error
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	VerifyAccessToken(raw string) (*token.Claims, error)
	CurrentUser(ctx context.Context, raw string) (*model.User, error)
}

// AuthDependencies wires an AuthService.
type AuthDependencies struct {
	Users      repository.UserRepository
	Tokens     repository.RefreshTokenRepository
	Signer     *token.Signer
	Hasher     *password.Hasher
	RefreshTTL time.Duration
	Usernames  *UsernameIndex
	Metrics    Metrics
}

type authService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	signer     *token.Signer
	hasher     *password.Hasher
	refreshTTL time.Duration
	usernames  *UsernameIndex
	metrics    Metrics
	now        func() time.Time
}

// NewAuthService returns an AuthService backed by the given repositories.
func NewAuthService(deps AuthDependencies) AuthService {
	ttl := deps.RefreshTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &authService{
		users:      deps.Users,
		tokens:     deps.Tokens,
		signer:     deps.Signer,
		hasher:     deps.Hasher,
		refreshTTL: ttl,
		usernames:  deps.Usernames,
		metrics:    metricsOrNop(deps.Metrics),
		now:        time.Now,
	}
}

// NormalizeUsername returns the stored form of a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail returns the stored form of an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := NormalizeUsername(input.Username)
	email := NormalizeEmail(input.Email)
	if username == "" {
		return nil, NewValidationError("username", "username is required")
	}
	if email == "" {
		return nil, NewValidationError("email", "email is required")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %q: %w", username, ErrAlreadyExists)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %q: %w", email, ErrAlreadyExists)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		Role:           model.RoleUser,
		ThemeColor:     model.DefaultThemeColor,
		BackgroundType: model.DefaultBackgroundType,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, fmt.Errorf("create user: %w", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.usernames.Add(user.Username)
	return user, nil
}

// Authenticate resolves identifier as an email when it contains "@" and as a
// username otherwise.
func (s *authService) Authenticate(ctx context.Context, identifier, plain string) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, NormalizeEmail(identifier))
	} else {
		user, err = s.users.GetByUsername(ctx, NormalizeUsername(identifier))
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.CompareDummy(plain)
			s.metrics.LoginAttempt(false)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, plain); err != nil {
		s.metrics.LoginAttempt(false)
		return nil, ErrInvalidCredentials
	}

	s.metrics.LoginAttempt(true)
	return user, nil
}

func (s *authService) IssueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.signer.Issue(identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	plain, hash, err := token.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	record := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: plain,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    s.expiresIn(access),
	}, nil
}

func (s *authService) Login(ctx context.Context, identifier, plain string) (*TokenPair, error) {
	user, err := s.Authenticate(ctx, identifier, plain)
	if err != nil {
		return nil, err
	}
	return s.IssueTokens(ctx, user)
}

// RefreshAccess mints a new access token. The refresh token itself is not rotated.
func (s *authService) RefreshAccess(ctx context.Context, refreshToken string) (*AccessToken, error) {
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}

	record, err := s.tokens.GetValid(ctx, token.HashRefreshToken(refreshToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load token owner: %w", err)
	}

	access, err := s.signer.Issue(identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.metrics.TokenRefreshed()
	return &AccessToken{
		AccessToken: access.Token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   s.expiresIn(access),
	}, nil
}

func (s *authService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, token.HashRefreshToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *authService) RevokeAll(ctx context.Context, userID uint) error {
	if _, err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// Logout revokes refreshToken when given, then every remaining token of the user.
func (s *authService) Logout(ctx context.Context, userID uint, refreshToken string) error {
	if err := s.Revoke(ctx, refreshToken); err != nil {
		return err
	}
	return s.RevokeAll(ctx, userID)
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, current); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.RevokeAll(ctx, userID)
}

func (s *authService) VerifyAccessToken(raw string) (*token.Claims, error) {
	claims, err := s.signer.Verify(raw)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *authService) CurrentUser(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.VerifyAccessToken(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return user, nil
}

func (s *authService) expiresIn(access token.AccessToken) int {
	return int(access.ExpiresAt.Sub(s.now()).Seconds())
}

func identityOf(user *model.User) token.Identity {
	return token.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}
}
