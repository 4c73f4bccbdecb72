// Package identity abstracts the email/password identity provider used by
// the session bootstrap flow. The provider knows nothing about roles; role
// records live in the users collection and are joined to identities by uid.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the closed enumeration of provider failure classes. The
// login state machine switches on these exhaustively instead of comparing
// provider-specific error codes by string.
type ErrorKind int

const (
	// KindInternal is any unclassified provider failure
	KindInternal ErrorKind = iota
	// KindIdentityNotFound - no identity registered for the email
	KindIdentityNotFound
	// KindInvalidCredential - identity exists but the password is wrong.
	// Providers are deliberately ambiguous between this and
	// KindIdentityNotFound; callers must treat the two alike.
	KindInvalidCredential
	// KindAlreadyInUse - an identity is already registered for the email
	KindAlreadyInUse
	// KindProviderMisconfigured - the provider has no password-based
	// accounts configured at all
	KindProviderMisconfigured
)

func (k ErrorKind) String() string {
	switch k {
	case KindIdentityNotFound:
		return "identity-not-found"
	case KindInvalidCredential:
		return "invalid-credential"
	case KindAlreadyInUse:
		return "already-in-use"
	case KindProviderMisconfigured:
		return "provider-misconfigured"
	default:
		return "internal"
	}
}

// Error is a classified provider failure
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("identity: %s", e.Kind)
	}
	return fmt.Sprintf("identity: %s: %s", e.Kind, e.Msg)
}

// NewError creates a classified provider error
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf extracts the failure class from an error, KindInternal when the
// error did not come from a provider.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// EventType classifies identity-change notifications
type EventType int

const (
	// EventSignedIn - an identity authenticated (including right after
	// creation, matching provider behavior of signing in new identities)
	EventSignedIn EventType = iota
	// EventSignedOut - an identity's session ended
	EventSignedOut
	// EventDeleted - an identity was removed
	EventDeleted
)

// Event is an identity-changed notification
type Event struct {
	Type  EventType
	UID   string
	Email string
}

// Observer receives identity-change events
type Observer func(Event)

// Provider is the email/password identity provider contract. All emails
// passed in are expected to be lowercased and trimmed by the caller.
type Provider interface {
	// SignIn authenticates and returns the identity id
	SignIn(ctx context.Context, email, password string) (string, error)
	// CreateIdentity registers a new identity and signs it in
	CreateIdentity(ctx context.Context, email, password string) (string, error)
	// DeleteIdentity removes an identity (compensating action for the
	// speculative registration in the invite-claim flow)
	DeleteIdentity(ctx context.Context, uid string) error
	// SignOut ends the identity's session
	SignOut(ctx context.Context, uid string) error
	// Subscribe registers an observer for identity-change events
	Subscribe(obs Observer)
}
