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

package ops

// SetAttrMask selects which fields a SetAttr call updates.
type SetAttrMask uint32

const (
	SetAttrMode SetAttrMask = 1 << iota
	SetAttrUid
	SetAttrGid
	SetAttrSize
	SetAttrAtime
	SetAttrMtime
	SetAttrCtime
	SetAttrAtimeNow
	SetAttrMtimeNow
)

func (m SetAttrMask) has(bit SetAttrMask) bool { return m&bit != 0 }

// SetAttrRequest carries the new values for whichever fields Mask selects.
// ATIME_NOW/MTIME_NOW override the explicit Atime/Mtime fields when both
// bits are set for the same timestamp, per the setattr contract.
type SetAttrRequest struct {
	Mask SetAttrMask

	Mode uint32
	Uid  uint32
	Gid  uint32
	Size uint64

	Atime int64
	Mtime int64
	Ctime int64
}
