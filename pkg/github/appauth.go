package github

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// appJWTTTL is the validity window GitHub allows for app JWTs.
const appJWTTTL = 10 * time.Minute

// AppIdentity is the GitHub App identity used to mint app JWTs.
type AppIdentity struct {
	AppID string
	// PrivateKeyPEM is the app's RSA private key in PEM form. Use
	// NormalizePrivateKey to convert a configured value into this shape.
	PrivateKeyPEM string
}

// InstallationToken is the short-lived bearer credential scoped to one
// installation. It lives only in memory for the current run and must never
// be logged.
type InstallationToken struct {
	Token     string
	ExpiresAt time.Time
}

// MintAppJWT creates a signed RS256 JWT asserting the app's identity. The
// token is valid from now for appJWTTTL and carries the app ID as issuer.
func MintAppJWT(identity AppIdentity, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(identity.PrivateKeyPEM))
	if err != nil {
		return "", &SigningError{Reason: "parsing RSA private key", Err: err}
	}

	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTTTL)),
		Issuer:    identity.AppID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", &SigningError{Reason: "signing app JWT", Err: err}
	}
	return signed, nil
}

// ExchangeInstallationToken lists the installations visible to the app JWT
// and requests an access token for the first one. Apps deployed for a single
// organization have exactly one installation; when more exist the first is
// used.
func ExchangeInstallationToken(ctx context.Context, appJWT string) (*InstallationToken, error) {
	return exchangeInstallationToken(ctx, newBearerClient(ctx, appJWT))
}

func exchangeInstallationToken(ctx context.Context, client *gh.Client) (*InstallationToken, error) {
	installations, _, err := client.Apps.ListInstallations(ctx, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, &AuthError{Reason: "listing installations", Err: err}
	}
	if len(installations) == 0 {
		return nil, &AuthError{Reason: "no installations found for this app"}
	}

	installation := installations[0]
	token, _, err := client.Apps.CreateInstallationToken(ctx, installation.GetID(), nil)
	if err != nil {
		return nil, &AuthError{Reason: "requesting installation access token", Err: err}
	}
	if token.GetToken() == "" {
		return nil, &AuthError{Reason: "access token response contains no token"}
	}

	return &InstallationToken{
		Token:     token.GetToken(),
		ExpiresAt: token.GetExpiresAt().Time,
	}, nil
}

// newBearerClient builds a go-github client that sends the given bearer
// credential on every request.
func newBearerClient(ctx context.Context, token string) *gh.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return gh.NewClient(oauth2.NewClient(ctx, ts))
}
