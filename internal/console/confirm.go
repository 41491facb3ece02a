package console

import (
	"context"
	"errors"
)

// ErrNotAuthorized rejects an action the caller's auth context does not
// permit.
var ErrNotAuthorized = errors.New("not authorized")

// ErrConfirmationConsumed rejects confirming or dismissing a pending
// confirmation twice.
var ErrConfirmationConsumed = errors.New("confirmation already consumed")

// AuthContext is the external capability check this layer depends on.
// How the caller was authenticated is out of scope here.
type AuthContext interface {
	IsAdmin() bool
}

// StaticAuth is a fixed-capability AuthContext, used by the CLI and in
// tests.
type StaticAuth bool

func (a StaticAuth) IsAdmin() bool { return bool(a) }

// PendingConfirmation is the first half of a two-phase destructive
// action: RequestX hands one out, and nothing happens until Confirm.
// How the question is presented to the user is not this type's concern.
type PendingConfirmation struct {
	Action   string
	EntityID string

	apply    func(context.Context) error
	consumed bool
}

// Confirm executes the guarded action. A confirmation is single-use.
func (p *PendingConfirmation) Confirm(ctx context.Context) error {
	if p.consumed {
		return ErrConfirmationConsumed
	}
	p.consumed = true
	return p.apply(ctx)
}

// Dismiss discards the pending action without executing it.
func (p *PendingConfirmation) Dismiss() error {
	if p.consumed {
		return ErrConfirmationConsumed
	}
	p.consumed = true
	return nil
}
