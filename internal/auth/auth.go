package auth

import (
	"errors"
	"fmt"
	"time"

	"matchhub/internal/coordinator"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("login_failed")

// Claims carried by an account token. The subject is the account id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 account tokens. A Verifier without a secret accepts
// nothing; callers treat every connection as a guest.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (v *Verifier) Enabled() bool { return v != nil && len(v.secret) > 0 }

// Verify turns a token into an identity.
func (v *Verifier) Verify(token string) (coordinator.Identity, error) {
	if !v.Enabled() || token == "" {
		return coordinator.Identity{}, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return coordinator.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return coordinator.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return coordinator.Identity{AccountID: claims.Subject, DisplayName: claims.Name}, nil
}

// Issue signs a token for accountID. Used by the bot and tests.
func (v *Verifier) Issue(accountID, name string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", errors.New("auth disabled")
	}
	now := v.now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
