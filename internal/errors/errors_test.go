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

package errors

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrnoMapping(t *testing.T) {
	assert.Equal(t, syscall.Errno(0), Errno(nil))
	assert.Equal(t, syscall.ENOSPC, Errno(New("op", NoSpace)))
	assert.Equal(t, syscall.EIO, Errno(New("op", Internal)))
	assert.Equal(t, syscall.EIO, Errno(New("op", Remote)))
	assert.Equal(t, syscall.EIO, Errno(New("op", NotExist)))
}

func TestKindOfDefaultsForeignErrorsToInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, OK, KindOf(nil))
}

func TestWrapNilErrReturnsNilError(t *testing.T) {
	var err error = Wrap("op", Internal, nil)
	assert.Nil(t, err)
}

func TestUnwrapReachesUnderlyingCause(t *testing.T) {
	cause := errors.New("transport reset")
	wrapped := Wrap("op", Remote, cause)
	assert.ErrorIs(t, wrapped, cause)
}
