package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: missing token, bad
// signature, expiry, malformed claims. Callers must not expose which one.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal attached to a connection or
// request after a successful token verification.
type Identity struct {
	UserID   string
	Username string
}

// Claims are the custom JWT claims issued by the auth service.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared HS256 secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a raw token, returning the identity carried in
// its claims. All failures collapse to ErrInvalidToken.
func (v *Verifier) Verify(rawToken string) (Identity, error) {
	if rawToken == "" {
		return Identity{}, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(rawToken, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

// FromAuthorizationHeader strips the Bearer scheme from an Authorization
// header value. Returns the empty string when the header is not a bearer
// credential.
func FromAuthorizationHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
