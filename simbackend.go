// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/boljen/go-bitmap"
)

type BackendOpKind uint8

const (
	OpGate BackendOpKind = iota
	OpProgramRoot
	OpProgramPll
)

func (k BackendOpKind) String() string {
	switch k {
	case OpGate:
		return "gate"
	case OpProgramRoot:
		return "program-root"
	case OpProgramPll:
		return "program-pll"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// BackendOp is one successful register write seen by SimBackend.
type BackendOp struct {
	Kind    BackendOpKind
	Clock   ClockID
	On      bool
	Mux     uint32
	Divider uint32
	Payload []byte
}

func (o BackendOp) String() string {
	switch o.Kind {
	case OpGate:
		return fmt.Sprintf("gate(%d, on=%v)", o.Clock, o.On)
	case OpProgramRoot:
		return fmt.Sprintf("program-root(%d, mux=%d, div=%d)", o.Clock, o.Mux, o.Divider)
	default:
		return fmt.Sprintf("%s(%d, %d bytes)", o.Kind, o.Clock, len(o.Payload))
	}
}

type simRoot struct {
	mux     uint32
	divider uint32
}

// SimBackend models the CCM registers in memory: one gate bit per clock, mux and
// divider fields per root and the decoded PLL settings. It records every write
// and can be told to fail the next write of a kind.
type SimBackend struct {
	mu sync.Mutex

	gates    bitmap.Bitmap
	size     int
	roots    map[ClockID]simRoot
	fracPlls map[ClockID]FracPllParams
	pfds     map[ClockID]PfdParams

	ops    []BackendOp
	faults map[BackendOpKind]error
}

func NewSimBackend(clockCount int) *SimBackend {
	return &SimBackend{
		gates:    bitmap.New(clockCount),
		size:     clockCount,
		roots:    make(map[ClockID]simRoot),
		fracPlls: make(map[ClockID]FracPllParams),
		pfds:     make(map[ClockID]PfdParams),
		faults:   make(map[BackendOpKind]error),
	}
}

// FailNext makes the next write of kind return err.
func (b *SimBackend) FailNext(kind BackendOpKind, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.faults[kind] = err
}

func (b *SimBackend) takeFault(kind BackendOpKind) error {
	err, ok := b.faults[kind]
	if !ok {
		return nil
	}
	delete(b.faults, kind)
	return err
}

func (b *SimBackend) checkID(id ClockID) error {
	if int64(id) >= int64(b.size) {
		return fmt.Errorf("no register for clock %d", id)
	}
	return nil
}

func (b *SimBackend) Gate(id ClockID, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFault(OpGate); err != nil {
		return err
	}
	if err := b.checkID(id); err != nil {
		return err
	}

	b.gates.Set(int(id), on)
	b.ops = append(b.ops, BackendOp{Kind: OpGate, Clock: id, On: on})

	logger.Tracef("sim: gate %d on=%v", id, on)

	return nil
}

func (b *SimBackend) ProgramRoot(id ClockID, muxIndex uint32, divider uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFault(OpProgramRoot); err != nil {
		return err
	}
	if err := b.checkID(id); err != nil {
		return err
	}

	// the divider field holds div-1 in 8 bits
	if divider == 0 || divider > MaxDivider {
		return fmt.Errorf("divider %d does not fit the register", divider)
	}

	b.roots[id] = simRoot{mux: muxIndex, divider: divider}
	b.ops = append(b.ops, BackendOp{Kind: OpProgramRoot, Clock: id, Mux: muxIndex, Divider: divider})

	logger.Tracef("sim: root %d mux=%d div=%d", id, muxIndex, divider)

	return nil
}

func (b *SimBackend) ProgramPll(id ClockID, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFault(OpProgramPll); err != nil {
		return err
	}
	if err := b.checkID(id); err != nil {
		return err
	}
	if len(payload) == 0 {
		return errors.New("empty PLL payload")
	}

	switch payload[0] {
	case payloadTagFracPll:
		p, err := DecodeFracPll(payload)
		if err != nil {
			return err
		}
		b.fracPlls[id] = p
	case payloadTagPfd:
		p, err := DecodePfd(payload)
		if err != nil {
			return err
		}
		b.pfds[id] = p
	default:
		return fmt.Errorf("unknown PLL payload tag 0x%02x", payload[0])
	}

	b.ops = append(b.ops, BackendOp{Kind: OpProgramPll, Clock: id, Payload: append([]byte(nil), payload...)})

	logger.Tracef("sim: pll %d programmed", id)

	return nil
}

// Ops returns a copy of the recorded writes.
func (b *SimBackend) Ops() []BackendOp {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]BackendOp(nil), b.ops...)
}

// CountOps counts recorded writes of kind.
func (b *SimBackend) CountOps(kind BackendOpKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, op := range b.ops {
		if op.Kind == kind {
			count++
		}
	}
	return count
}

func (b *SimBackend) ClearOps() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ops = nil
}

// Ungated reports the gate bit of id.
func (b *SimBackend) Ungated(id ClockID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.checkID(id) != nil {
		return false
	}
	return b.gates.Get(int(id))
}

// Root returns the mux and divider last written for a root.
func (b *SimBackend) Root(id ClockID) (mux uint32, divider uint32, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.roots[id]
	return r.mux, r.divider, ok
}

func (b *SimBackend) FracPll(id ClockID) (FracPllParams, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.fracPlls[id]
	return p, ok
}

func (b *SimBackend) Pfd(id ClockID) (PfdParams, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pfds[id]
	return p, ok
}
