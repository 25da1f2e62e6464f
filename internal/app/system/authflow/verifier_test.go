package authflow

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/creds"
)

func testKeyPEM(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return key, string(pem.EncodeToMemory(block))
}

func signedToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestNewJWTVerifier(t *testing.T) {
	_, pemStr := testKeyPEM(t)

	tests := []struct {
		name    string
		blob    creds.Blob
		wantErr bool
	}{
		{"valid key", creds.Blob{"private_key": pemStr}, false},
		{"missing key", creds.Blob{}, true},
		{"garbage key", creds.Blob{"private_key": "not pem"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTVerifier(tt.blob, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewJWTVerifier() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	key, pemStr := testKeyPEM(t)
	v, err := NewJWTVerifier(creds.Blob{"private_key": pemStr}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("valid token with sub", func(t *testing.T) {
		tok := signedToken(t, key, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		subject, err := v.Verify(ctx, tok)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if subject != "user-1" {
			t.Errorf("subject = %q", subject)
		}
	})

	t.Run("uid fallback", func(t *testing.T) {
		tok := signedToken(t, key, jwt.MapClaims{
			"uid": "user-2",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		subject, err := v.Verify(ctx, tok)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if subject != "user-2" {
			t.Errorf("subject = %q", subject)
		}
	})

	t.Run("no subject claims", func(t *testing.T) {
		tok := signedToken(t, key, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		subject, err := v.Verify(ctx, tok)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if subject != "" {
			t.Errorf("subject = %q, want empty", subject)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		tok := signedToken(t, key, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		_, err := v.Verify(ctx, tok)
		if !errors.Is(err, ErrTokenExpired) {
			t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other, _ := testKeyPEM(t)
		tok := signedToken(t, other, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		_, err := v.Verify(ctx, tok)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("shared-secret"))
		if err != nil {
			t.Fatal(err)
		}
		_, verr := v.Verify(ctx, tok)
		if !errors.Is(verr, ErrTokenInvalid) {
			t.Errorf("Verify() error = %v, want ErrTokenInvalid", verr)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify(ctx, "not.a.token")
		if !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
		}
	})
}
