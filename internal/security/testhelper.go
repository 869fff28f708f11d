package security

// testSecret is a base64-encoded 32-byte secret for unit tests only. Do not use in production.
const testSecret = "c2Vzc2lvbi10b2tlbi1zZXJ2aWNlLXRlc3Qtc2VjcmV0IQ=="

// NewTestTokenCodec returns a TokenCodec using the embedded test secret.
// For unit tests only. Callers must not use in production.
func NewTestTokenCodec() (*TokenCodec, error) {
	key, err := DeriveSigningKey(testSecret)
	if err != nil {
		return nil, err
	}
	return NewTokenCodec(key), nil
}
