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

// Package trace generates client-side correlation IDs. The write and read
// pipelines tag their trace log line with one; the ID is not passed to the
// RPC clients.
package trace

import "github.com/google/uuid"

// NewID returns a fresh correlation ID. It has no relation to the RPC
// transport's own request IDs; it exists purely for log correlation on the
// client side of the three service boundaries.
func NewID() string {
	return uuid.NewString()
}
