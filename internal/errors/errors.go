// Copyright 2026 The CurveFS Client Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the client's error taxonomy and the errno mapping
// applied at the kernel-callback boundary.
package errors

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind discriminates the handful of ways a client operation can fail. It is
// a closed set: every RPC stub and cache method returns one of these kinds
// rather than an opaque error, so the operation handler can decide how to
// propagate it without string-matching.
type Kind int

const (
	// OK is the zero value; no constructor below ever returns it, it exists
	// so a zero Kind is recognizably "not an error kind".
	OK Kind = iota
	NotExist
	AlreadyExist
	NoSpace
	Remote
	Internal
	Inconsistent
)

func (k Kind) String() string {
	switch k {
	case NotExist:
		return "not-exist"
	case AlreadyExist:
		return "already-exist"
	case NoSpace:
		return "no-space"
	case Remote:
		return "remote"
	case Internal:
		return "internal"
	case Inconsistent:
		return "inconsistent"
	default:
		return "ok"
	}
}

// Error is the concrete error type returned by every collaborator in this
// module. Op names the failing operation (e.g. "dentrycache.Get") for log
// correlation; Err, when set, wraps the underlying transport or invariant
// failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap builds an *Error around an underlying cause.
func Wrap(op string, kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the Kind carried by err, defaulting to Internal for any
// error that didn't originate from this package (an invariant we want to
// know about, not silently mask).
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Errno maps a Kind to the POSIX errno the kernel-callback boundary reports,
// per the contract: OK->0, NOSPACE->ENOSPC, all others->EIO.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case NoSpace:
		return syscall.ENOSPC
	default:
		return syscall.EIO
	}
}
