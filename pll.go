// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

// pllStep is one PLL level that still has to be committed.
type pllStep struct {
	node   *ClockNode
	config int
}

func (r *rateNegotiator) findPllConfig(n *ClockNode, rate uint32) (int, error) {
	if rate == 0 {
		return noConfig, clockErrorf(ErrorInvalidRate, "0 Hz is not a valid rate for %s", n.name)
	}

	for i, c := range n.configs {
		if c.Frequency == rate {
			return i, nil
		}
	}

	return noConfig, clockErrorf(ErrorNoSuitableConfiguration, "PLL %s has no configuration for %d Hz", n.name, rate)
}

// planPll walks from n towards the VCO and returns, parents first, the levels
// that need programming for n to run config. It fails before anything is
// written if a committed level would have to change.
func (r *rateNegotiator) planPll(n *ClockNode, config int, steps []pllStep) ([]pllStep, error) {
	if n.selected != noConfig {
		if n.selected == config {
			return steps, nil
		}
		return nil, clockErrorf(ErrorConfigurationLocked, "PLL %s is committed to %d Hz, cannot switch to %d Hz",
			n.name, n.configs[n.selected].Frequency, n.configs[config].Frequency)
	}

	if parent := r.graph.Parent(n); parent != nil {
		var err error

		steps, err = r.planPll(parent, n.configs[config].ParentConfig, steps)
		if err != nil {
			return nil, err
		}
	}

	return append(steps, pllStep{n, config}), nil
}

// resolvePll commits config on n together with every level below it. With
// program unset the levels are only recorded, for PLLs the boot ROM started.
func (r *rateNegotiator) resolvePll(n *ClockNode, config int, program bool) error {
	steps, err := r.planPll(n, config, nil)
	if err != nil {
		return err
	}

	if len(steps) == 0 {
		clockLog(n).Debugf("configuration %d already committed", config)
		return nil
	}

	for _, s := range steps {
		cfg := s.node.configs[s.config]

		if program {
			err := r.backend.ProgramPll(s.node.id, cfg.Payload)
			recordWrite(OpProgramPll, err)
			if err != nil {
				return hardwareError("program PLL", s.node.id, err)
			}
		}

		s.node.selected = s.config
		r.graph.setRate(s.node, cfg.Frequency)
		r.graph.refreshRoots(s.node)

		clockLog(s.node).Infof("committed configuration %d (%d Hz, programmed: %v)", s.config, cfg.Frequency, program)
	}

	return nil
}

func (r *rateNegotiator) setPllRate(n *ClockNode, rate uint32) (uint32, error) {
	config, err := r.findPllConfig(n, rate)
	if err != nil {
		return 0, err
	}

	if err := r.resolvePll(n, config, true); err != nil {
		return 0, err
	}

	return n.freq, nil
}

func (r *rateNegotiator) roundPllRate(n *ClockNode, rate uint32) (uint32, error) {
	config, err := r.findPllConfig(n, rate)
	if err != nil {
		return 0, err
	}

	if _, err := r.planPll(n, config, nil); err != nil {
		return 0, err
	}

	return rate, nil
}
