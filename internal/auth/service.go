package auth

import (
	"context"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/repository"
)

// Service authenticates users against user_master and hands out token
// pairs.
type Service struct {
	masters repository.MasterRepository
	jwt     *JWTManager
	cfg     *config.Config
	logger  *log.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an auth service.
func NewService(masters repository.MasterRepository, jwt *JWTManager, cfg *config.Config, opts ...Option) *Service {
	s := &Service{masters: masters, jwt: jwt, cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginRequest accepts either a user code or an email as the identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResult is the token pair plus the authenticated user.
type LoginResult struct {
	User   *models.User `json:"user"`
	Tokens *TokenPair   `json:"tokens"`
}

// Login verifies the password and issues a token pair. Inactive users and
// bad credentials both come back as the same unauthorized error.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	if req.Identifier == "" || req.Password == "" {
		return nil, apierrors.Validation("identifier and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(req.Identifier, "@") {
		user, err = s.masters.GetUserByEmail(ctx, req.Identifier)
	} else {
		user, err = s.masters.GetUser(ctx, req.Identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsInactive {
		return nil, apierrors.Unauthorized("Invalid credentials")
	}

	hash, err := s.masters.GetPasswordHash(ctx, user.UserCode)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, apierrors.Unauthorized("Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		s.logger.Printf("[auth] failed login for %s", user.UserCode)
		return nil, apierrors.Unauthorized("Invalid credentials")
	}

	isAdmin := user.Designation != nil && s.cfg.IsAdminDesignation(*user.Designation)
	tokens, err := s.jwt.GeneratePair(user.UserCode, user.UserName, isAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("[auth] login user=%s admin=%t", user.UserCode, isAdmin)
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The user is
// re-checked against the master so a deactivated account cannot refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apierrors.Unauthorized("Invalid refresh token")
	}
	user, err := s.masters.GetUser(ctx, claims.UserCode)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsInactive {
		return nil, apierrors.Unauthorized("Invalid refresh token")
	}
	isAdmin := user.Designation != nil && s.cfg.IsAdminDesignation(*user.Designation)
	return s.jwt.GeneratePair(user.UserCode, user.UserName, isAdmin)
}
