package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"tripweaver/globals"
	"tripweaver/models"
	"tripweaver/utils"
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrSessionExpired = errors.New("session expired")
)

// JWT claims. RegisteredClaims.ID carries the session id.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	jwt.RegisteredClaims
}

// SessionLoader returns the live session behind a token, or an error once it
// has been revoked.
type SessionLoader interface {
	Load(ctx context.Context, sessionID string) (*models.Session, error)
}

// Authenticator verifies bearer tokens and, when Sessions is set, checks them
// against the server-side session store.
type Authenticator struct {
	Secret   []byte
	Sessions SessionLoader
}

// ParseToken verifies an HS256 token string without the "Bearer " prefix.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("unauthorized: invalid token")
	}
	return claims, nil
}

// Identify resolves the request's token to a session. Websocket upgrades may
// pass the token as the "token" query parameter since browsers cannot set headers.
func (a *Authenticator) Identify(r *http.Request) (*models.Session, error) {
	tokenString, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	if a.Sessions == nil {
		sess := &models.Session{ID: claims.ID, UserID: claims.UserID, Username: claims.Username}
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
		return sess, nil
	}

	sess, err := a.Sessions.Load(r.Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.UserID || sess.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if websocket.IsWebSocketUpgrade(r) {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, nil
			}
		}
		return "", ErrMissingToken
	}
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", errors.New("invalid token format")
	}
	return header[7:], nil
}

func Authenticate(a *Authenticator) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			sess, err := a.Identify(r)
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
					return
				}
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next(w, r.WithContext(WithSession(r.Context(), sess)), ps)
		}
	}
}

func OptionalAuth(a *Authenticator) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if sess, err := a.Identify(r); err == nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			// Proceed regardless of token state
			next(w, r, ps)
		}
	}
}

// WithSession stores the session and its user id in ctx.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	ctx = context.WithValue(ctx, globals.UserIDKey, sess.UserID)
	ctx = context.WithValue(ctx, globals.UsernameKey, sess.Username)
	return context.WithValue(ctx, globals.SessionKey, sess)
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(globals.SessionKey).(*models.Session)
	return sess, ok && sess != nil
}
