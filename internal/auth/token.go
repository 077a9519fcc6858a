package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SigningMethod is the only algorithm accepted for bearer tokens
var SigningMethod = jwt.SigningMethodHS256

// TokenVerifier validates bearer tokens signed with a shared secret
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
	log    *zap.Logger
}

// NewTokenVerifier creates a verifier for tokens signed with secret
func NewTokenVerifier(secret string, log *zap.Logger) *TokenVerifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{SigningMethod.Alg()}),
			jwt.WithExpirationRequired(),
		),
		log: log,
	}
}

// Verify checks an Authorization header value and returns the identity it
// carries: the username claim, else the sub claim. Every failure, including
// a missing or malformed header, yields ("", false).
func (v *TokenVerifier) Verify(header string) (string, bool) {
	token, ok := bearerToken(header)
	if !ok {
		return "", false
	}

	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			v.log.Warn("bearer token has expired")
		} else {
			v.log.Warn("invalid bearer token", zap.Error(err))
		}
		return "", false
	}

	if username, ok := claims["username"].(string); ok && username != "" {
		return username, true
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, true
	}

	v.log.Debug("bearer token carries no identity claim")
	return "", false
}

// bearerToken splits "Bearer <token>". The scheme is case-insensitive and the
// header must hold exactly two whitespace-separated parts.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
