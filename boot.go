// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

import (
	"fmt"
)

// PllBootEntry brings up one PLL level at boot.
type PllBootEntry struct {
	Clock string `json:"clock"`
	// AssumeOn records Rate as already running (programmed by the boot ROM)
	// without writing to the hardware.
	AssumeOn bool   `json:"assumeOn,omitempty"`
	Rate     uint32 `json:"rate"`
}

// AssignedClock configures one root at boot.
type AssignedClock struct {
	Clock string `json:"clock"`
	// Parent optionally selects the mux source first.
	Parent string `json:"parent,omitempty"`
	Rate   uint32 `json:"rate"`
}

// BootPlan is applied once after construction: PLLs first, then assigned clocks.
type BootPlan struct {
	Plls           []PllBootEntry  `json:"plls,omitempty"`
	AssignedClocks []AssignedClock `json:"assignedClocks,omitempty"`
}

// Boot applies plan in order and stops at the first failing step.
func (t *ClockTree) Boot(plan *BootPlan) error {
	if plan == nil {
		return nil
	}

	if err := t.acquire(); err != nil {
		return countError("boot", err)
	}
	defer t.release()

	for i, p := range plan.Plls {
		if err := t.bootPll(p); err != nil {
			return countError("boot", fmt.Errorf("boot pll #%d (%s): %w", i, p.Clock, err))
		}
	}

	for i, a := range plan.AssignedClocks {
		if err := t.bootAssigned(a); err != nil {
			return countError("boot", fmt.Errorf("boot assigned clock #%d (%s): %w", i, a.Clock, err))
		}
	}

	logger.Infof("boot plan applied: %d PLLs, %d assigned clocks", len(plan.Plls), len(plan.AssignedClocks))

	return nil
}

func (t *ClockTree) bootPll(p PllBootEntry) error {
	n, err := t.graph.LookupByName(p.Clock)
	if err != nil {
		return err
	}

	if !n.kind.IsPll() {
		return clockErrorf(ErrorUnsupportedOperation, "%s clock %s is not a PLL", n.kind, n.name)
	}

	if !p.AssumeOn {
		_, err := t.rates.setPllRate(n, p.Rate)
		return err
	}

	config, err := t.rates.findPllConfig(n, p.Rate)
	if err != nil {
		return err
	}

	return t.rates.resolvePll(n, config, false)
}

func (t *ClockTree) bootAssigned(a AssignedClock) error {
	n, err := t.graph.LookupByName(a.Clock)
	if err != nil {
		return err
	}

	if a.Parent != "" {
		parent, err := t.graph.LookupByName(a.Parent)
		if err != nil {
			return err
		}

		if err := t.gate(n.id, false); err != nil {
			return err
		}

		if err := t.assignParent(n.id, parent.id); err != nil {
			return err
		}
	}

	if _, err := t.roundRate(n.id, a.Rate); err != nil {
		return err
	}

	// no gate write happens if the parent step already gated it
	if err := t.gate(n.id, false); err != nil {
		return err
	}

	if _, err := t.setRate(n.id, a.Rate); err != nil && !IsAlreadySet(err) {
		return err
	}

	return nil
}
