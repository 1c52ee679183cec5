package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a remote store failure so callers branch on the kind
// instead of the error text.
type Kind string

const (
	KindTransient      Kind = "transient"
	KindAuthorization  Kind = "authorization"
	KindSchemaMismatch Kind = "schema_mismatch"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
)

var (
	ErrTransient      = errors.New("remote store unavailable")
	ErrAuthorization  = errors.New("not authorized")
	ErrSchemaMismatch = errors.New("remote schema mismatch")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("record not found")
)

var (
	ErrOffline            = errors.New("offline: write not attempted")
	ErrSessionHalted      = errors.New("session halted until the remote schema is repaired")
	ErrLimitReached       = errors.New("free tier limit reached")
	ErrHistoryNotRecorded = errors.New("inventory history entry not recorded")
	ErrAlreadySigned      = errors.New("document already signed")
	ErrInvalidKey         = errors.New("invalid access key")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnknownEvent       = errors.New("unknown billing event")
)

func (k Kind) sentinel() error {
	switch k {
	case KindTransient:
		return ErrTransient
	case KindAuthorization:
		return ErrAuthorization
	case KindSchemaMismatch:
		return ErrSchemaMismatch
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	}
	return nil
}

// StoreError is returned by remote store adapters.
type StoreError struct {
	Kind       Kind
	Op         string
	Collection Collection
	Err        error
}

// NewStoreError wraps err with its classification.
func NewStoreError(kind Kind, op string, collection Collection, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Collection: collection, Err: err}
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Collection, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Collection, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind, so errors.Is(err, ErrTransient)
// holds for any transient StoreError.
func (e *StoreError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf extracts the classification of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
