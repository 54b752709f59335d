// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

import (
	"time"
)

type TreeConfig struct {
	Backend PlatformClockBackend
	// MaxDivider bounds root dividers, inclusive. 0 selects MaxDivider.
	MaxDivider uint32
	// AllowUngatedRateChange drops the requirement that a root is gated
	// before its rate changes. The root is still gated around the write.
	AllowUngatedRateChange bool
	// LockTimeout bounds how long a call waits for the tree. 0 waits forever.
	LockTimeout time.Duration
}

func NewTreeConfig(backend PlatformClockBackend) *TreeConfig {

	config := &TreeConfig{
		Backend:    backend,
		MaxDivider: MaxDivider,
	}

	return config
}

// ClockTree is the only entry point drivers use. Every call holds the
// tree-wide lock for its whole duration.
type ClockTree struct {
	graph  *ClockGraph
	gates  *gateController
	rates  *rateNegotiator
	config TreeConfig
	lock   chan struct{}
}

// ClockStatus is a copy of a node's runtime state.
type ClockStatus struct {
	ID             ClockID
	Name           string
	Kind           ClockKind
	Rate           uint32
	State          GateState
	Parent         string
	Divider        uint32
	SelectedConfig int
}

func NewClockTree(topology []NodeDescriptor, config *TreeConfig) (*ClockTree, error) {
	if config == nil || config.Backend == nil {
		return nil, NewClockError("clock tree needs a platform backend", ErrorInvalidConfig)
	}

	cfg := *config
	if cfg.MaxDivider == 0 {
		cfg.MaxDivider = MaxDivider
	}
	if cfg.MaxDivider > MaxDivider {
		return nil, clockErrorf(ErrorInvalidConfig, "max divider %d exceeds hardware limit %d", cfg.MaxDivider, MaxDivider)
	}

	graph, err := NewClockGraph(topology)
	if err != nil {
		return nil, err
	}

	for _, n := range graph.nodes {
		if n.divider > cfg.MaxDivider {
			return nil, clockErrorf(ErrorInvalidConfig, "root %s boots with divider %d above %d", n.name, n.divider, cfg.MaxDivider)
		}
	}

	gates := &gateController{backend: cfg.Backend}

	tree := &ClockTree{
		graph:  graph,
		gates:  gates,
		config: cfg,
		lock:   make(chan struct{}, 1),
		rates: &rateNegotiator{
			graph:      graph,
			gates:      gates,
			backend:    cfg.Backend,
			maxDivider: cfg.MaxDivider,
		},
	}

	logger.Infof("clock tree ready: %d clocks, max divider %d", graph.Len(), cfg.MaxDivider)

	return tree, nil
}

func (t *ClockTree) acquire() error {
	start := time.Now()

	if t.config.LockTimeout <= 0 {
		t.lock <- struct{}{}
		lockWait.Observe(time.Since(start).Seconds())
		return nil
	}

	timer := time.NewTimer(t.config.LockTimeout)
	defer timer.Stop()

	select {
	case t.lock <- struct{}{}:
		lockWait.Observe(time.Since(start).Seconds())
		return nil
	case <-timer.C:
		return clockErrorf(ErrorBusy, "clock tree still busy after %v", t.config.LockTimeout)
	}
}

func (t *ClockTree) release() {
	<-t.lock
}

func (t *ClockTree) lookup(id ClockID, capability int, op string) (*ClockNode, error) {
	n, err := t.graph.Lookup(id)
	if err != nil {
		return nil, err
	}

	if !n.kind.can(capability) {
		return nil, clockErrorf(ErrorUnsupportedOperation, "%s is not supported by %s clock %s", op, n.kind, n.name)
	}

	return n, nil
}

// Resolve maps a clock name to its id.
func (t *ClockTree) Resolve(name string) (ClockID, error) {
	n, err := t.graph.LookupByName(name)
	if err != nil {
		return 0, err
	}
	return n.id, nil
}

func (t *ClockTree) TurnOn(id ClockID) error {
	if err := t.acquire(); err != nil {
		return countError("turn-on", err)
	}
	defer t.release()

	return countError("turn-on", t.gate(id, true))
}

func (t *ClockTree) TurnOff(id ClockID) error {
	if err := t.acquire(); err != nil {
		return countError("turn-off", err)
	}
	defer t.release()

	return countError("turn-off", t.gate(id, false))
}

// GetRate returns the cached rate. The hardware is never queried.
func (t *ClockTree) GetRate(id ClockID) (uint32, error) {
	if err := t.acquire(); err != nil {
		return 0, countError("get-rate", err)
	}
	defer t.release()

	rate, err := t.getRate(id)
	return rate, countError("get-rate", err)
}

// SetRate configures a root or PLL and returns the rate actually obtained,
// which for roots may differ from rate. A root already at rate returns
// ErrAlreadySet along with the rate.
func (t *ClockTree) SetRate(id ClockID, rate uint32) (uint32, error) {
	if err := t.acquire(); err != nil {
		return 0, countError("set-rate", err)
	}
	defer t.release()

	obtained, err := t.setRate(id, rate)
	return obtained, countError("set-rate", err)
}

// RoundRate returns the rate SetRate would obtain, without touching anything.
func (t *ClockTree) RoundRate(id ClockID, rate uint32) (uint32, error) {
	if err := t.acquire(); err != nil {
		return 0, countError("round-rate", err)
	}
	defer t.release()

	rounded, err := t.roundRate(id, rate)
	return rounded, countError("round-rate", err)
}

// AssignParent selects parentID as the source of a root. DummyClockID is
// accepted and changes nothing.
func (t *ClockTree) AssignParent(id ClockID, parentID ClockID) error {
	if err := t.acquire(); err != nil {
		return countError("assign-parent", err)
	}
	defer t.release()

	return countError("assign-parent", t.assignParent(id, parentID))
}

func (t *ClockTree) Snapshot() ([]ClockStatus, error) {
	if err := t.acquire(); err != nil {
		return nil, err
	}
	defer t.release()

	status := make([]ClockStatus, 0, len(t.graph.nodes))

	for _, n := range t.graph.nodes {
		s := ClockStatus{
			ID:             n.id,
			Name:           n.name,
			Kind:           n.kind,
			Rate:           n.freq,
			State:          n.state,
			Divider:        n.divider,
			SelectedConfig: n.selected,
		}
		if p := t.graph.Parent(n); p != nil {
			s.Parent = p.name
		}
		status = append(status, s)
	}

	return status, nil
}

func (t *ClockTree) gate(id ClockID, on bool) error {
	n, err := t.lookup(id, capGate, "gating")
	if err != nil {
		return err
	}
	return t.gates.request(n, on)
}

func (t *ClockTree) getRate(id ClockID) (uint32, error) {
	n, err := t.lookup(id, capReadRate, "reading the rate")
	if err != nil {
		return 0, err
	}

	if !n.configured() {
		return 0, clockErrorf(ErrorNotConfigured, "clock %s is not configured yet", n.name)
	}

	return n.freq, nil
}

func (t *ClockTree) setRate(id ClockID, rate uint32) (uint32, error) {
	n, err := t.graph.Lookup(id)
	if err != nil {
		return 0, err
	}

	switch {
	case n.kind.can(capSetRootRate):
		return t.rates.setRootRate(n, rate, !t.config.AllowUngatedRateChange)
	case n.kind.can(capSetPllRate):
		return t.rates.setPllRate(n, rate)
	default:
		return 0, clockErrorf(ErrorUnsupportedOperation, "rate of %s clock %s cannot be set", n.kind, n.name)
	}
}

func (t *ClockTree) roundRate(id ClockID, rate uint32) (uint32, error) {
	n, err := t.graph.Lookup(id)
	if err != nil {
		return 0, err
	}

	switch {
	case n.kind.can(capSetRootRate):
		return t.rates.roundRootRate(n, rate)
	case n.kind.can(capSetPllRate):
		return t.rates.roundPllRate(n, rate)
	default:
		return 0, clockErrorf(ErrorUnsupportedOperation, "rate of %s clock %s cannot be set", n.kind, n.name)
	}
}

func (t *ClockTree) assignParent(id ClockID, parentID ClockID) error {
	n, err := t.graph.Lookup(id)
	if err != nil {
		return err
	}
	return t.rates.assignParent(n, parentID)
}
