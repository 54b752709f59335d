// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

import "fmt"

// ClockID identifies a node. It is the node's index in the topology it was built from.
type ClockID uint32

// DummyClockID is accepted by AssignParent as "leave unconfigured".
const DummyClockID ClockID = 0xFFFFFFFF

// MaxDivider is the largest root divider the CCM accepts (inclusive).
const MaxDivider uint32 = 256

type ClockKind uint8 // node kinds of the clock graph

const (
	KindFixed ClockKind = iota
	KindPllVco
	KindPllPfd
	KindPllPfdDiv2
	KindRootMux
	KindIpLeaf
)

func (k ClockKind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindPllVco:
		return "pll-vco"
	case KindPllPfd:
		return "pll-pfd"
	case KindPllPfdDiv2:
		return "pll-pfd-div2"
	case KindRootMux:
		return "root"
	case KindIpLeaf:
		return "ip"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsPll reports whether the kind is one of the PLL levels.
func (k ClockKind) IsPll() bool {
	return k == KindPllVco || k == KindPllPfd || k == KindPllPfdDiv2
}

type GateState uint8 // tri-state gate of roots and ip clocks

const (
	GateUncertain GateState = iota // hardware state unknown (boot ROM / bootloader)
	GateGated
	GateUngated
)

func (s GateState) String() string {
	switch s {
	case GateUncertain:
		return "uncertain"
	case GateGated:
		return "gated"
	case GateUngated:
		return "ungated"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// noConfig marks a PLL level without a committed configuration.
const noConfig = -1

// noParent marks a node without a (current) parent.
const noParent = -1
