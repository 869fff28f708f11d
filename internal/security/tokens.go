package security

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaim is the JWT claim carrying the session identifier. It is the only claim the codec writes.
const SessionClaim = "LOGIN_USER_KEY"

var (
	// ErrInvalidToken is returned when a token is malformed, has a bad signature, or lacks the session claim.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token carries an exp claim that has passed.
	ErrExpiredToken = errors.New("expired token")
)

// TokenCodec turns a session id into a compact HS256 JWT and back. The token is only a reference:
// expiry and identity live in the session record.
type TokenCodec struct {
	keys KeyProvider
}

// NewTokenCodec returns a TokenCodec that signs with the key supplied by keys.
func NewTokenCodec(keys KeyProvider) *TokenCodec {
	return &TokenCodec{keys: keys}
}

// Encode signs a token whose only claim is sessionID.
func (c *TokenCodec) Encode(sessionID string) (string, error) {
	key, err := c.keys.Key()
	if err != nil {
		return "", err
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{SessionClaim: sessionID})
	return t.SignedString(key.Bytes())
}

// Decode verifies tokenString and returns its session id.
// Blank input and the literal "null" mean "not authenticated" and return ("", nil).
// Otherwise it returns ErrExpiredToken, ErrInvalidToken, or ErrConfiguration when the key cannot be derived.
func (c *TokenCodec) Decode(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" || tokenString == "null" {
		return "", nil
	}
	key, err := c.keys.Key()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key.Bytes(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	sessionID, _ := claims[SessionClaim].(string)
	if sessionID == "" {
		return "", ErrInvalidToken
	}
	return sessionID, nil
}
