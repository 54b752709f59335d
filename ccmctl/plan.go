// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/bbnote/goccm"
	"sigs.k8s.io/yaml"
)

// loadBootPlan reads a boot plan file, e.g.
//
//	plls:
//	  - clock: video_pll1
//	    rate: 594000000
//	assignedClocks:
//	  - clock: lpuart1_root
//	    parent: osc_24m
//	    rate: 24000000
func loadBootPlan(path string) (*goccm.BootPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseBootPlan(data)
}

func parseBootPlan(data []byte) (*goccm.BootPlan, error) {
	plan := &goccm.BootPlan{}

	if err := yaml.UnmarshalStrict(data, plan); err != nil {
		return nil, fmt.Errorf("malformed boot plan: %w", err)
	}

	for i, p := range plan.Plls {
		if p.Clock == "" || p.Rate == 0 {
			return nil, fmt.Errorf("pll entry #%d needs a clock and a rate", i)
		}
	}

	for i, a := range plan.AssignedClocks {
		if a.Clock == "" || a.Rate == 0 {
			return nil, fmt.Errorf("assigned clock #%d needs a clock and a rate", i)
		}
	}

	return plan, nil
}
