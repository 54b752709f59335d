// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

// PlatformClockBackend flips the actual bits. Calls are synchronous; errors are
// opaque to the tree and surface as ErrorHardware with the original error wrapped.
type PlatformClockBackend interface {
	// Gate turns the gate of a root or ip clock on (ungated) or off (gated).
	Gate(id ClockID, on bool) error
	// ProgramRoot selects mux source muxIndex and divider of a root.
	ProgramRoot(id ClockID, muxIndex uint32, divider uint32) error
	// ProgramPll commits one PLL level with the payload of a PllConfig.
	ProgramPll(id ClockID, payload []byte) error
}
