package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPEM(t *testing.T) (string, *rsa.PublicKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block)), &key.PublicKey
}

func TestMintAppJWT(t *testing.T) {
	pemKey, pubKey := testKeyPEM(t)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	signed, err := MintAppJWT(AppIdentity{AppID: "31337", PrivateKeyPEM: pemKey}, now)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(signed, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return pubKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, "31337", claims.Issuer)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(10*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestMintAppJWTBadKey(t *testing.T) {
	_, err := MintAppJWT(AppIdentity{AppID: "1", PrivateKeyPEM: "not a pem"}, time.Now())

	var sigErr *SigningError
	require.ErrorAs(t, err, &sigErr)
	assert.Contains(t, err.Error(), "parsing RSA private key")
}

// testGHClient points a go-github client at a test server.
func testGHClient(t *testing.T, srv *httptest.Server) *gh.Client {
	t.Helper()
	client := gh.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

func TestExchangeInstallationToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 42}, {"id": 77}]`)
	})
	mux.HandleFunc("/app/installations/42/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"token": "ghs_secret", "expires_at": "2026-03-14T10:30:00Z"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	token, err := exchangeInstallationToken(context.Background(), testGHClient(t, srv))
	require.NoError(t, err)

	// The first installation wins.
	assert.Equal(t, "ghs_secret", token.Token)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC), token.ExpiresAt.UTC())
}

func TestExchangeInstallationTokenNoInstallations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := exchangeInstallationToken(context.Background(), testGHClient(t, srv))

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "no installations")
}

func TestExchangeInstallationTokenMissingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 42}]`)
	})
	mux.HandleFunc("/app/installations/42/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"expires_at": "2026-03-14T10:30:00Z"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := exchangeInstallationToken(context.Background(), testGHClient(t, srv))

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "no token")
}
