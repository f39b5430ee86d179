package github

import "fmt"

// SigningError indicates that the app's private key could not be parsed or
// that signing the app JWT failed. It is fatal: no API call is attempted
// with a broken identity.
type SigningError struct {
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("app token signing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("app token signing: %s", e.Reason)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// AuthError indicates that exchanging the app JWT for an installation token
// failed: either no installation is visible to the app or the token response
// was malformed.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("installation auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("installation auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
