// Package auth authenticates requests and checks capabilities.
//
// The host signs in users and hands competencymap a session token: an HS256
// JWT whose claims carry the user, a session id and the capabilities the
// user holds per permission context. Context "*" grants a capability in
// every context. Form posts made with the session cookie must echo the
// session key (sesskey), an HMAC of the session id; bearer-token API calls
// are exempt because browsers never attach them on their own.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"competencymap/internal/domain"
)

// Capabilities checked by competencymap
const (
	CapViewAll = "question:viewall"
	CapEditAll = "question:editall"
)

// AnyContext grants a capability in every context
const AnyContext = "*"

// Claims are the JWT claims of a session token
type Claims struct {
	SessionID    string              `json:"sid"`
	Capabilities map[string][]string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// Session is an authenticated caller
type Session struct {
	Subject   string
	SessionID string
	ViaBearer bool

	caps map[string][]string
}

// Has reports whether the session holds capability in contextID.
// question:editall implies question:viewall.
func (s *Session) Has(contextID int64, capability string) bool {
	if s == nil {
		return false
	}
	for _, key := range []string{strconv.FormatInt(contextID, 10), AnyContext} {
		for _, c := range s.caps[key] {
			if c == capability || (capability == CapViewAll && c == CapEditAll) {
				return true
			}
		}
	}
	return false
}

// Authenticator issues and verifies session tokens
type Authenticator struct {
	signingKey []byte
	sesskeyKey []byte
	issuer     string
	cookieName string
	ttl        time.Duration
	now        func() time.Time
}

// New derives the token and sesskey keys from secret
func New(secret, issuer, cookieName string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}

	signingKey, err := deriveKey(secret, "competencymap session token")
	if err != nil {
		return nil, err
	}
	sesskeyKey, err := deriveKey(secret, "competencymap sesskey")
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		signingKey: signingKey,
		sesskeyKey: sesskeyKey,
		issuer:     issuer,
		cookieName: cookieName,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// CookieName returns the name of the session cookie
func (a *Authenticator) CookieName() string {
	return a.cookieName
}

// Issue signs a session token for subject with the given capabilities
func (a *Authenticator) Issue(subject string, caps map[string][]string) (string, error) {
	now := a.now()
	claims := Claims{
		SessionID:    uuid.NewString(),
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.signingKey)
}

// Parse verifies a session token
func (a *Authenticator) Parse(tokenString string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: invalid session token", domain.ErrUnauthenticated)
	}

	return &Session{
		Subject:   claims.Subject,
		SessionID: claims.SessionID,
		caps:      claims.Capabilities,
	}, nil
}

// FromRequest reads the session from the Authorization header or the
// session cookie
func (a *Authenticator) FromRequest(r *http.Request) (*Session, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return nil, fmt.Errorf("%w: unsupported authorization scheme", domain.ErrUnauthenticated)
		}
		s, err := a.Parse(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		s.ViaBearer = true
		return s, nil
	}

	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, domain.ErrUnauthenticated
	}
	return a.Parse(cookie.Value)
}

// SessKey returns the form token bound to the session
func (a *Authenticator) SessKey(s *Session) string {
	mac := hmac.New(sha256.New, a.sesskeyKey)
	mac.Write([]byte(s.SessionID))
	return hex.EncodeToString(mac.Sum(nil)[:16])
}

// VerifySessKey checks a submitted sesskey in constant time
func (a *Authenticator) VerifySessKey(s *Session, key string) bool {
	if s == nil || key == "" {
		return false
	}
	return hmac.Equal([]byte(a.SessKey(s)), []byte(key))
}

// Require returns ErrUnauthenticated without a session and ErrUnauthorized
// when the session lacks capability in contextID
func Require(s *Session, contextID int64, capability string) error {
	if s == nil {
		return domain.ErrUnauthenticated
	}
	if !s.Has(contextID, capability) {
		return fmt.Errorf("%w: %s required in context %d", domain.ErrUnauthorized, capability, contextID)
	}
	return nil
}

type sessionKey struct{}

// WithSession stores the session in the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession, or nil
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// ParseCapabilities parses "ctx=cap,cap;ctx=cap" into a capability map,
// as accepted by the token command
func ParseCapabilities(spec string) (map[string][]string, error) {
	caps := make(map[string][]string)
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ctxID, list, ok := strings.Cut(part, "=")
		ctxID = strings.TrimSpace(ctxID)
		if !ok || ctxID == "" {
			return nil, fmt.Errorf("invalid capability spec %q (want context=cap[,cap])", part)
		}
		if ctxID != AnyContext {
			if _, err := strconv.ParseInt(ctxID, 10, 64); err != nil {
				return nil, fmt.Errorf("invalid context id %q", ctxID)
			}
		}
		for _, c := range strings.Split(list, ",") {
			if c = strings.TrimSpace(c); c != "" {
				caps[ctxID] = append(caps[ctxID], c)
			}
		}
	}
	return caps, nil
}
