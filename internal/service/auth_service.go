package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"studyroom-be/internal/config"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/internal/repository/contract"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minSecretLength = 4

var (
	ErrInvalidSecretFormat = errors.New("invalid secret key format")
	ErrInvalidSession      = errors.New("invalid session")
)

// LockedOutError is returned while a client address is locked out.
type LockedOutError struct {
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	return "too many login attempts"
}

// RemainingSeconds rounds the lockout up to whole seconds.
func (e *LockedOutError) RemainingSeconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// InvalidSecretError is a wrong secret; Remaining is how many attempts are
// left before lockout.
type InvalidSecretError struct {
	Remaining int
}

func (e *InvalidSecretError) Error() string {
	if e.Remaining > 0 {
		return fmt.Sprintf("Invalid secret key. %d attempts remaining", e.Remaining)
	}
	return "Account locked. Please try again later"
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

type IAuthService interface {
	Login(ctx context.Context, clientKey, secretKey string) (*LoginResult, error)
	Validate(token string) error
}

type authService struct {
	cfg      config.SecurityConfig
	attempts contract.LoginAttemptRepository
	logger   logger.ILogger
	now      func() time.Time
}

func NewAuthService(cfg config.SecurityConfig, attempts contract.LoginAttemptRepository, log logger.ILogger) IAuthService {
	return &authService{
		cfg:      cfg,
		attempts: attempts,
		logger:   log,
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, clientKey, secretKey string) (*LoginResult, error) {
	// 1. Lockout
	attempt, ok, err := s.attempts.Get(ctx, clientKey)
	if err != nil {
		return nil, fmt.Errorf("read login attempts: %w", err)
	}
	if ok && attempt.Count >= s.cfg.MaxLoginAttempts {
		elapsed := s.now().Sub(attempt.FirstAttempt)
		if elapsed < s.cfg.LockoutDuration {
			s.logger.Warn("AuthService", "Rate limited login attempt", map[string]interface{}{"client": clientKey})
			return nil, &LockedOutError{Remaining: s.cfg.LockoutDuration - elapsed}
		}
	}

	// 2. Format
	if len(secretKey) < minSecretLength {
		s.logger.Warn("AuthService", "Invalid secret key format", map[string]interface{}{"client": clientKey})
		return nil, ErrInvalidSecretFormat
	}

	// 3. Count the attempt
	attempt, err = s.attempts.Increment(ctx, clientKey, s.cfg.LockoutDuration)
	if err != nil {
		return nil, fmt.Errorf("record login attempt: %w", err)
	}

	// 4. Compare
	if !s.secretMatches(secretKey) {
		s.logger.Warn("AuthService", "Failed login attempt", map[string]interface{}{"client": clientKey, "attempts": attempt.Count})
		return nil, &InvalidSecretError{Remaining: s.cfg.MaxLoginAttempts - attempt.Count}
	}

	if err := s.attempts.Reset(ctx, clientKey); err != nil {
		s.logger.Warn("AuthService", "Failed to reset login attempts", map[string]interface{}{"client": clientKey, "error": err.Error()})
	}

	// 5. Session token
	now := s.now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	claims := jwt.MapClaims{
		"authenticated": true,
		"iat":           now.Unix(),
		"exp":           expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "Successful login", map[string]interface{}{"client": clientKey})
	return &LoginResult{Token: signedToken, ExpiresAt: expiresAt}, nil
}

func (s *authService) secretMatches(secretKey string) bool {
	expected := s.cfg.AuthKey
	if expected == "" {
		return false
	}
	if strings.HasPrefix(expected, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(expected), []byte(secretKey)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(secretKey)) == 1
}

// Validate checks a session token issued by Login.
func (s *authService) Validate(tokenStr string) error {
	if tokenStr == "" || s.cfg.TokenSecret == "" {
		return ErrInvalidSession
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidSession
	}
	if authenticated, _ := claims["authenticated"].(bool); !authenticated {
		return ErrInvalidSession
	}
	return nil
}
