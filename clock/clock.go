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

// Package clock abstracts time so atime/mtime/ctime stamping can run
// against a deterministic clock in tests instead of real wall time.
package clock

import "time"

// Clock is implemented by RealClock and FakeClock. Only Now is needed here:
// the operation handler stamps inode timestamps from it and has no
// scheduled-wakeup logic that would need an After.
type Clock interface {
	Now() time.Time
}

var (
	_ Clock = RealClock{}
	_ Clock = &FakeClock{}
)
