package auth

import "crypto/subtle"

// ServiceKeyHeader carries the shared secret on internal calls
const ServiceKeyHeader = "X-Service-Key"

// ServiceKeyVerifier recognises trusted internal callers by a shared secret
type ServiceKeyVerifier struct {
	secret []byte
}

// NewServiceKeyVerifier creates a verifier for secret
func NewServiceKeyVerifier(secret string) *ServiceKeyVerifier {
	return &ServiceKeyVerifier{secret: []byte(secret)}
}

// Verify reports whether key matches the configured secret. An empty
// secret matches nothing.
func (v *ServiceKeyVerifier) Verify(key string) bool {
	if len(v.secret) == 0 || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), v.secret) == 1
}
