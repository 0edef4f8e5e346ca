package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"ecochain/crypto"
)

const testSecret = "gateway-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func testCaller() crypto.Address {
	return crypto.BytesToAddress([]byte{0x42})
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": testCaller().String(),
		"iss": "ecochain-gateway",
		"aud": "ecochain",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(AuthConfig{
		Enabled:    true,
		HMACSecret: testSecret,
		Issuer:     "ecochain-gateway",
		Audience:   "ecochain",
	}, nil)
}

func serve(auth *Authenticator, token string, scopes ...string) (*httptest.ResponseRecorder, crypto.Address, bool) {
	var (
		caller crypto.Address
		ok     bool
	)
	handler := auth.Middleware(scopes...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok = Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/token/transfer", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res, caller, ok
}

func TestAuthenticatorResolvesCaller(t *testing.T) {
	auth := newTestAuthenticator()
	res, caller, ok := serve(auth, signToken(t, baseClaims()))
	if res.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", res.Code)
	}
	if !ok || caller != testCaller() {
		t.Fatalf("caller=%s ok=%v", caller, ok)
	}
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	auth := newTestAuthenticator()
	res, _, _ := serve(auth, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", res.Code)
	}
}

func TestAuthenticatorRejectsWrongSignature(t *testing.T) {
	auth := newTestAuthenticator()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims())
	signed, err := token.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	res, _, _ := serve(auth, signed)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", res.Code)
	}
}

func TestAuthenticatorRejectsIssuerMismatch(t *testing.T) {
	auth := newTestAuthenticator()
	claims := baseClaims()
	claims["iss"] = "somebody-else"
	res, _, _ := serve(auth, signToken(t, claims))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", res.Code)
	}
}

func TestAuthenticatorRejectsBadSubject(t *testing.T) {
	auth := newTestAuthenticator()
	claims := baseClaims()
	claims["sub"] = "not-an-address"
	res, _, _ := serve(auth, signToken(t, claims))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", res.Code)
	}
}

func TestAuthenticatorEnforcesScopes(t *testing.T) {
	auth := newTestAuthenticator()

	res, _, _ := serve(auth, signToken(t, baseClaims()), "admin")
	if res.Code != http.StatusForbidden {
		t.Fatalf("status=%d without scope, want 403", res.Code)
	}

	claims := baseClaims()
	claims["scope"] = "admin read"
	res, _, _ = serve(auth, signToken(t, claims), "admin")
	if res.Code != http.StatusOK {
		t.Fatalf("status=%d with scope, want 200", res.Code)
	}
}

func TestAuthenticatorDisabledPassesThrough(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: false}, nil)
	res, _, ok := serve(auth, "")
	if res.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", res.Code)
	}
	if ok {
		t.Fatal("caller should not be set when auth is disabled")
	}
}

func TestExtractBearer(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
		"Bearer  a b": "a b",
	}
	for header, want := range cases {
		if got := extractBearer(header); got != want {
			t.Errorf("extractBearer(%q)=%q, want %q", header, got, want)
		}
	}
}
