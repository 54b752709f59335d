// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

// rateNegotiator picks and commits root (mux, divider) pairs and PLL
// configuration chains.
type rateNegotiator struct {
	graph      *ClockGraph
	gates      *gateController
	backend    PlatformClockBackend
	maxDivider uint32
}

type rootChoice struct {
	mux      int
	source   *ClockNode
	divider  uint32
	obtained uint32
	diff     uint32
}

// matchRootRate scans the mux table in selector order and keeps the first
// source with the smallest error. An exact match ends the scan.
func (r *rateNegotiator) matchRootRate(n *ClockNode, rate uint32) (rootChoice, error) {
	best := rootChoice{mux: -1}

	for i, s := range n.sources {
		src := r.graph.nodes[s]

		if !src.configured() {
			clockLog(n).Debugf("source %d (%s) not configured, skipping", i, src.name)
			continue
		}

		if rate > src.rateLimit() {
			clockLog(n).Debugf("source %d (%s) limited to %d Hz, skipping", i, src.name, src.rateLimit())
			continue
		}

		div := divRoundUp(src.freq, rate)
		if div > r.maxDivider {
			clockLog(n).Debugf("source %d (%s) needs divider %d, skipping", i, src.name, div)
			continue
		}

		obtained := src.freq / div
		diff := absDiff(rate, obtained)

		if best.mux == -1 || diff < best.diff {
			best = rootChoice{mux: i, source: src, divider: div, obtained: obtained, diff: diff}
		}

		if diff == 0 {
			break
		}
	}

	if best.mux == -1 {
		return best, clockErrorf(ErrorNoSuitableConfiguration, "no source of %s can produce %d Hz", n.name, rate)
	}

	clockLog(n).Debugf("best match for %d Hz: %s / %d = %d Hz (error %d)",
		rate, best.source.name, best.divider, best.obtained, best.diff)

	return best, nil
}

func (r *rateNegotiator) roundRootRate(n *ClockNode, rate uint32) (uint32, error) {
	if rate == 0 {
		return 0, clockErrorf(ErrorInvalidRate, "0 Hz is not a valid rate for %s", n.name)
	}

	choice, err := r.matchRootRate(n, rate)
	if err != nil {
		return 0, err
	}
	return choice.obtained, nil
}

func (r *rateNegotiator) setRootRate(n *ClockNode, rate uint32, requireGated bool) (uint32, error) {
	if rate == 0 {
		return 0, clockErrorf(ErrorInvalidRate, "0 Hz is not a valid rate for %s", n.name)
	}

	if requireGated && n.state != GateGated {
		return 0, clockErrorf(ErrorInvalidState, "root %s must be gated before changing its rate (is %s)", n.name, n.state)
	}

	if n.freq == rate {
		return rate, clockErrorf(ErrorAlreadySet, "root %s already runs at %d Hz", n.name, rate)
	}

	choice, err := r.matchRootRate(n, rate)
	if err != nil {
		return 0, err
	}

	if err := r.programRoot(n, choice.mux, choice.divider, choice.obtained); err != nil {
		return 0, err
	}

	clockLog(n).Infof("rate set to %d Hz (requested %d Hz, source %s, divider %d)",
		choice.obtained, rate, choice.source.name, choice.divider)

	return choice.obtained, nil
}

func (r *rateNegotiator) assignParent(n *ClockNode, parentID ClockID) error {
	if parentID == DummyClockID {
		return nil
	}

	if !n.kind.can(capAssignParent) {
		return clockErrorf(ErrorInvalidParent, "%s clock %s has no selectable parent", n.kind, n.name)
	}

	parent, err := r.graph.Lookup(parentID)
	if err != nil {
		return clockErrorf(ErrorInvalidParent, "parent %d of %s does not exist", parentID, n.name)
	}

	mux := n.muxIndex(int(parent.id))
	if mux < 0 {
		return clockErrorf(ErrorInvalidParent, "%s is not a source of root %s", parent.name, n.name)
	}

	if n.parent == int(parent.id) {
		clockLog(n).Debugf("%s already selected", parent.name)
		return nil
	}

	div := n.divider
	if div == 0 {
		div = 1
	}

	var freq uint32
	if parent.configured() {
		freq = parent.freq / div
	}

	if err := r.programRoot(n, mux, div, freq); err != nil {
		return err
	}

	clockLog(n).Infof("parent set to %s", parent.name)

	return nil
}

// programRoot gates the root, writes mux and divider and restores the gate
// if the root was running before. Once the write succeeded the commit stands,
// even if the restore fails.
func (r *rateNegotiator) programRoot(n *ClockNode, mux int, divider uint32, freq uint32) error {
	wasUngated := n.state == GateUngated

	if err := r.gates.request(n, false); err != nil {
		return err
	}

	err := r.backend.ProgramRoot(n.id, uint32(mux), divider)
	recordWrite(OpProgramRoot, err)
	if err != nil {
		if wasUngated {
			if restoreErr := r.gates.request(n, true); restoreErr != nil {
				clockLog(n).Warnf("could not ungate after failed programming: %v", restoreErr)
			}
		}
		return hardwareError("program root", n.id, err)
	}

	n.parent = n.sources[mux]
	n.divider = divider
	r.graph.setRate(n, freq)

	// the new setting is in hardware; a root left gated is recorded as such
	// and the next TurnOn retries the write
	if wasUngated {
		if err := r.gates.request(n, true); err != nil {
			clockLog(n).Warnf("programmed but could not ungate again: %v", err)
		}
	}

	return nil
}
