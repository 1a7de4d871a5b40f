package middleware

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/hkdf"
)

const (
	CtxSessionIDKey   = "session_id" // string
	SessionCookieName = "vip_session"
)

// セッションCookieの設定
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

// Cookie署名用のJWT発行・検証
type SessionTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// SESSION_SECRETからHKDFで署名鍵を作る
func NewSessionTokens(cfg SessionConfig) (*SessionTokens, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte("vip-cart session cookie v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionTokens{key: key, ttl: ttl, now: now}, nil
}

func (s *SessionTokens) Issue(sessionID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// 署名・期限・sessionIDの形式を確認してsessionIDを返す
func (s *SessionTokens) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil || token == nil || !token.Valid {
		return "", errors.New("invalid session token")
	}

	// jwt/v4のValidはtime.Nowを見るので、注入した時計でも期限を確認する
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return "", errors.New("session token expired")
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("invalid session id")
	}
	return claims.Subject, nil
}

// Cookieのセッションを確認し、無い・不正なら新しく発行する。
// 以降のhandlerは c.Get(CtxSessionIDKey) でsessionIDを取れる。
func CartSession(tokens *SessionTokens, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ck, err := c.Cookie(SessionCookieName); err == nil && ck.Value != "" {
				if sid, err := tokens.Parse(ck.Value); err == nil {
					c.Set(CtxSessionIDKey, sid)
					return next(c)
				}
			}

			//新しいセッション
			sid := uuid.NewString()
			signed, expiresAt, err := tokens.Issue(sid)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("session error"))
			}

			c.SetCookie(&http.Cookie{
				Name:     SessionCookieName,
				Value:    signed,
				Path:     "/",
				Expires:  expiresAt,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(CtxSessionIDKey, sid)
			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func SessionIDFromContext(c echo.Context) (string, bool) {
	sid, ok := c.Get(CtxSessionIDKey).(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}
