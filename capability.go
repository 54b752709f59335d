package goccm

import (
	"github.com/boljen/go-bitmap"
)

// operations a node kind may support
const (
	capGate = iota
	capReadRate
	capSetRootRate
	capSetPllRate
	capAssignParent
	capCount
)

var kindCapabilities = map[ClockKind]bitmap.Bitmap{}

func init() {
	set := func(kind ClockKind, caps ...int) {
		b := bitmap.New(capCount)
		for _, c := range caps {
			b.Set(c, true)
		}
		kindCapabilities[kind] = b
	}

	set(KindFixed, capReadRate)
	set(KindPllVco, capReadRate, capSetPllRate)
	set(KindPllPfd, capReadRate, capSetPllRate)
	set(KindPllPfdDiv2, capReadRate, capSetPllRate)
	set(KindRootMux, capGate, capReadRate, capSetRootRate, capAssignParent)
	set(KindIpLeaf, capGate, capReadRate)
}

func (k ClockKind) can(capability int) bool {
	caps, ok := kindCapabilities[k]
	if !ok {
		return false
	}
	return caps.Get(capability)
}

// Gateable reports whether nodes of this kind carry a gate.
func (k ClockKind) Gateable() bool {
	return k.can(capGate)
}
