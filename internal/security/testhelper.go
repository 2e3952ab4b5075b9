package security

import "time"

// testSecret is a fixed HMAC key for unit tests only. Do not use in production.
const testSecret = "test-secret-test-secret-test-secret-0123"

// NewTestTokenProvider returns a TokenProvider keyed with a fixed test secret and a one hour TTL.
// For unit tests only.
func NewTestTokenProvider() *TokenProvider {
	p, err := NewTokenProvider([]byte(testSecret), "webstarter-test", time.Hour)
	if err != nil {
		panic(err)
	}
	return p
}
