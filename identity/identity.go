// Package identity verifies bearer tokens minted by an external identity
// authority. Implementations return identity facts only; they never create
// profiles or make authorisation decisions.
package identity

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnavailable    = errors.New("identity verifier is not configured")
	ErrTokenExpired   = errors.New("identity token expired")
	ErrTokenRevoked   = errors.New("identity token revoked")
	ErrTokenMalformed = errors.New("identity token malformed")
)

// Claims are the verified assertions about a subject.
type Claims struct {
	Subject string `json:"uid"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// EmailLocalPart returns the part of the email before '@'.
func (c Claims) EmailLocalPart() string {
	local, _, _ := strings.Cut(c.Email, "@")
	return local
}

// Verifier validates a token, including server-side revocation when the
// authority supports it.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// NeedsReauthentication reports whether a verification failure means the
// client should sign in again (expired, revoked or malformed token).
func NeedsReauthentication(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrTokenMalformed)
}

// Capability tells the authentication gate whether a verifier is usable.
// A disabled capability carries the reason it could not be configured.
type Capability struct {
	verifier Verifier
	reason   error
}

func Enabled(v Verifier) Capability {
	if v == nil {
		return Disabled(ErrUnavailable)
	}
	return Capability{verifier: v}
}

func Disabled(reason error) Capability {
	if reason == nil {
		reason = ErrUnavailable
	}
	return Capability{reason: reason}
}

// Verifier returns the configured verifier, or false when none is usable.
func (c Capability) Verifier() (Verifier, bool) {
	return c.verifier, c.verifier != nil
}

func (c Capability) Available() bool { return c.verifier != nil }

// Reason explains why the capability is disabled; nil when available.
func (c Capability) Reason() error {
	if c.verifier != nil {
		return nil
	}
	if c.reason == nil {
		return ErrUnavailable
	}
	return c.reason
}
