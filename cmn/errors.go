// Package cmn provides the shared error taxonomy, config, and wire message
// types for the Broker, the store, and Leonard — the azrael-sub000 analogue
// of aistore's cmn package.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the structural error kinds from §7 of the design: callers
// switch on Kind, never on the error's dynamic type.
type Kind string

const (
	KindBadInput        Kind = "BadInput"
	KindUnknownID       Kind = "UnknownID"
	KindUnknownTemplate Kind = "UnknownTemplate"
	KindConflict        Kind = "Conflict"
	KindStoreError      Kind = "StoreError"
	KindWorkerTimeout    Kind = "WorkerTimeout"
	KindIntegratorFailure Kind = "IntegratorFailure"
)

// Error wraps an underlying cause with a Kind the Broker's transport encodes
// into the client-visible {ok:false, msg} reply.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// KindOf unwraps err (which may be pkg/errors-wrapped) looking for a *Error
// and returns its Kind, or KindStoreError if err carries no Kind — an
// unclassified error from the datastore transport is treated as StoreError
// per §7.
func KindOf(err error) Kind {
	var azErr *Error
	if errors.As(err, &azErr) {
		return azErr.Kind
	}
	return KindStoreError
}
