package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	ids := []string{
		"s1",
		"0f8fad5b-d9cb-469f-a165-70867728950e",
		"Zm9vYmFyYmF6LXF1eF9xdXV4LTEyMzQ1Njc4OTBhYmNkZWY",
	}
	for _, id := range ids {
		token, err := c.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%q): %v", id, err)
		}
		if strings.Count(token, ".") != 2 {
			t.Errorf("Encode(%q) = %q, want compact JWS", id, token)
		}
		got, err := c.Decode(token)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != id {
			t.Errorf("Decode = %q, want %q", got, id)
		}
	}
}

func TestTokenCodec_EncodeDeterministic(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	a, _ := c.Encode("s1")
	b, _ := c.Encode("s1")
	if a != b {
		t.Errorf("Encode not deterministic: %q != %q", a, b)
	}
}

func TestTokenCodec_OnlySessionClaim(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	token, err := c.Encode("s1")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if len(claims) != 1 || claims[SessionClaim] != "s1" {
		t.Errorf("claims = %v, want only %s", claims, SessionClaim)
	}
}

func TestTokenCodec_DecodeNoSession(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	for _, in := range []string{"", "   ", "null", " null "} {
		id, err := c.Decode(in)
		if err != nil || id != "" {
			t.Errorf("Decode(%q) = %q, %v; want \"\", nil", in, id, err)
		}
	}
}

func TestTokenCodec_DecodeInvalid(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	token, _ := c.Encode("s1")
	parts := strings.Split(token, ".")

	testCases := []struct {
		name  string
		token string
	}{
		{"garbage", "invalid-token"},
		{"two segments", parts[0] + "." + parts[1]},
		{"tampered signature", parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]},
		{"tampered payload", parts[0] + ".eyJMT0dJTl9VU0VSX0tFWSI6InMyIn0." + parts[2]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := c.Decode(tc.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Decode: want ErrInvalidToken, got %v", err)
			}
			if id != "" {
				t.Errorf("Decode returned session id %q for invalid token", id)
			}
		})
	}
}

func TestTokenCodec_DecodeForeignKey(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	other, err := DeriveSigningKey("b3RoZXItc2VjcmV0LWtleS1mb3ItdGVzdHM=")
	if err != nil {
		t.Fatalf("DeriveSigningKey: %v", err)
	}
	forged, err := NewTokenCodec(other).Encode("spoofed")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	id, err := c.Decode(forged)
	if !errors.Is(err, ErrInvalidToken) || id != "" {
		t.Errorf("Decode forged = %q, %v; want \"\", ErrInvalidToken", id, err)
	}
}

func TestTokenCodec_DecodeWrongAlgorithm(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	key, _ := DeriveSigningKey(testSecret)
	t384 := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{SessionClaim: "s1"})
	token, err := t384.SignedString(key.Bytes())
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Decode HS384: want ErrInvalidToken, got %v", err)
	}
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{SessionClaim: "s1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString none: %v", err)
	}
	if _, err := c.Decode(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Decode alg=none: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_DecodeExpired(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	key, _ := DeriveSigningKey(testSecret)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		SessionClaim: "s1",
		"exp":        time.Now().Add(-time.Hour).Unix(),
	})
	token, err := expired.SignedString(key.Bytes())
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	id, err := c.Decode(token)
	if !errors.Is(err, ErrExpiredToken) || id != "" {
		t.Errorf("Decode expired = %q, %v; want \"\", ErrExpiredToken", id, err)
	}
}

func TestTokenCodec_DecodeMissingClaim(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	key, _ := DeriveSigningKey(testSecret)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	token, _ := tok.SignedString(key.Bytes())
	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Decode without session claim: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_BadConfiguration(t *testing.T) {
	c := NewTokenCodec(NewSigningKeyCache("not base64!"))
	if _, err := c.Encode("s1"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Encode: want ErrConfiguration, got %v", err)
	}
	if _, err := c.Decode("a.b.c"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Decode: want ErrConfiguration, got %v", err)
	}
}
