package gcp

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cwhitmore/jwtguard"
)

const testAudience = "/projects/1234/apps/demo"

func newKeyPair(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}

	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemKey)
}

func newKeyServer(t *testing.T, keys map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(keys); err != nil {
			t.Errorf("encode keys: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signAssertion(t *testing.T, key *ecdsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign assertion: %v", err)
	}
	return signed
}

func iapClaims(sub string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": sub,
		"aud": testAudience,
		"iat": now.Unix(),
		"exp": now.Add(10 * time.Minute).Unix(),
		"iss": "https://cloud.google.com/iap",
	}
}

func allowAll(ctx context.Context, subject string) (any, error) {
	return subject, nil
}

func TestNewEngineVerifiesAssertion(t *testing.T) {
	key, pemKey := newKeyPair(t)
	srv := newKeyServer(t, map[string]string{"kid-1": pemKey})

	engine, err := NewEngine(context.Background(), Config{
		Retriever: jwtguard.UserRetrieverFunc(allowAll),
		Audience:  testAudience,
		KeysURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	r := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.Header.Set(IAPHeader, signAssertion(t, key, "kid-1", iapClaims("accounts.google.com:42")))

	result, err := engine.Authenticate(r.Context(), r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result == nil || result.Token.Sub != "accounts.google.com:42" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.User != "accounts.google.com:42" {
		t.Fatalf("unexpected user: %v", result.User)
	}
}

func TestNewEngineRejections(t *testing.T) {
	key, pemKey := newKeyPair(t)
	strangerKey, _ := newKeyPair(t)
	srv := newKeyServer(t, map[string]string{"kid-1": pemKey})

	engine, err := NewEngine(context.Background(), Config{
		Retriever: jwtguard.UserRetrieverFunc(allowAll),
		Audience:  testAudience,
		KeysURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	wrongAudience := iapClaims("sub")
	wrongAudience["aud"] = "/projects/9999/apps/other"

	tests := []struct {
		name      string
		assertion string
	}{
		{"missing header", ""},
		{"unknown kid", signAssertion(t, key, "kid-2", iapClaims("sub"))},
		{"wrong key", signAssertion(t, strangerKey, "kid-1", iapClaims("sub"))},
		{"wrong audience", signAssertion(t, key, "kid-1", wrongAudience)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/resource", nil)
			if tt.assertion != "" {
				r.Header.Set(IAPHeader, tt.assertion)
			}

			result, err := engine.Authenticate(r.Context(), r)
			if !errors.Is(err, jwtguard.ErrNotAuthorized) {
				t.Fatalf("expected ErrNotAuthorized, got %v", err)
			}
			if result != nil {
				t.Fatalf("expected nil result, got %+v", result)
			}
		})
	}
}

func TestNewEngineExcludedPath(t *testing.T) {
	_, pemKey := newKeyPair(t)
	srv := newKeyServer(t, map[string]string{"kid-1": pemKey})

	engine, err := NewEngine(context.Background(), Config{
		Retriever: jwtguard.UserRetrieverFunc(allowAll),
		Exclude:   []string{"/healthz"},
		KeysURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(IAPHeader, "not-a-jwt")

	result, err := engine.Authenticate(r.Context(), r)
	if err != nil || result != nil {
		t.Fatalf("expected excluded pass-through, got result=%+v err=%v", result, err)
	}
}

func TestNewEngineConfigErrors(t *testing.T) {
	_, pemKey := newKeyPair(t)
	srv := newKeyServer(t, map[string]string{"kid-1": pemKey})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing retriever", Config{KeysURL: srv.URL}},
		{"bad audience form", Config{
			Retriever: jwtguard.UserRetrieverFunc(allowAll),
			Audience:  "demo",
			KeysURL:   srv.URL,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestFetchKeysFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}},
		{"empty set", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{}"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if _, err := FetchKeys(context.Background(), srv.Client(), srv.URL); err == nil {
				t.Fatal("expected fetch error")
			}
		})
	}
}
