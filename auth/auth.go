package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tripweaver/middleware"
	"tripweaver/models"
	"tripweaver/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

const minPasswordLength = 8

// Service registers users and manages their sessions.
type Service struct {
	users    UserStore
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(users UserStore, sessions SessionStore, secret []byte, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, sessions: sessions, secret: secret, ttl: ttl, logger: logger, now: time.Now}
}

// Authenticator returns the middleware verifier bound to this service's secret and sessions.
func (s *Service) Authenticator() *middleware.Authenticator {
	return &middleware.Authenticator{Secret: s.secret, Sessions: s.sessions}
}

func inputError(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidInput, msg) }

func (s *Service) Register(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if !usernameRe.MatchString(username) {
		return models.User{}, inputError("username must be 3-32 letters, digits or ._-")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, inputError("email address is invalid")
	}
	if len(password) < minPasswordLength {
		return models.User{}, inputError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		UserID:       "u" + utils.GenerateRandomString(10),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return models.User{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.UserID))
	return u, nil
}

// Login checks the credentials and starts a session. The returned token's jti
// is the session id.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.Session, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := &models.Session{
		ID:        utils.GetUUID(),
		UserID:    u.UserID,
		Username:  u.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.IssueToken(sess)
	if err != nil {
		return "", nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.users.TouchLogin(ctx, u.UserID, now.UTC()); err != nil {
		s.logger.Warn("recording last login", zap.String("user_id", u.UserID), zap.Error(err))
	}
	return token, sess, nil
}

// IssueToken signs an HS256 token for sess.
func (s *Service) IssueToken(sess *models.Session) (string, error) {
	claims := &middleware.Claims{
		Username: sess.Username,
		UserID:   sess.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Logout clears the session so its token is rejected from now on.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}
