package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens. The token id is the
// session id and the subject is the user id.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// NewSession starts a session for a user, expiring after the issuer's TTL.
func (t *TokenIssuer) NewSession(userID uuid.UUID, email string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		ExpiresAt: t.now().Add(t.ttl),
	}
}

func (t *TokenIssuer) Issue(s *Session) (string, error) {
	claims := &Claims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token. An expired but otherwise valid token returns its
// claims together with ErrTokenExpired, so the caller can drop the session.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims, err := t.parse(tokenString, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		expired, perr := t.parse(tokenString, jwt.WithoutClaimsValidation())
		if perr != nil {
			return nil, ErrInvalidToken
		}
		return expired, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
