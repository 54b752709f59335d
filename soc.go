// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

import "sort"

type SocTopology struct {
	Name   string
	Clocks []NodeDescriptor
	Boot   BootPlan
}

var supportedSocs = map[string]func() SocTopology{
	"imx93": imx93Topology,
}

// GetSocTopology returns a fresh copy of a built-in topology, nil if unknown.
func GetSocTopology(soc string) *SocTopology {
	if build, ok := supportedSocs[soc]; ok {
		t := build()
		return &t
	} else {
		return nil
	}
}

func SupportedSocs() []string {
	names := make([]string, 0, len(supportedSocs))
	for name := range supportedSocs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func imx93Topology() SocTopology {
	uartSources := []string{"osc_24m", "sys_pll1_pfd0_div2", "sys_pll1_pfd1_div2", "video_pll1"}

	return SocTopology{
		Name: "imx93",
		Clocks: []NodeDescriptor{
			{Name: "osc_24m", Kind: KindFixed, Frequency: 24000000},

			// sys_pll1 and its PFDs are started by the boot ROM
			{Name: "sys_pll1", Kind: KindPllVco, Configs: []PllConfig{
				{Frequency: 1000000000, Payload: FracPllParams{Rdiv: 1, Mfi: 125, Mfn: 0, Mfd: 1, Odiv: 3}.Payload()},
			}},
			{Name: "sys_pll1_pfd0", Kind: KindPllPfd, Parent: "sys_pll1", Configs: []PllConfig{
				{Frequency: 1000000000, Payload: PfdParams{Mfi: 1}.Payload()},
			}},
			{Name: "sys_pll1_pfd0_div2", Kind: KindPllPfdDiv2, Parent: "sys_pll1_pfd0", Configs: []PllConfig{
				{Frequency: 500000000, Payload: PfdParams{Mfi: 1, Div2: true}.Payload()},
			}},
			{Name: "sys_pll1_pfd1", Kind: KindPllPfd, Parent: "sys_pll1", Configs: []PllConfig{
				{Frequency: 800000000, Payload: PfdParams{Mfi: 1, Mfn: 1}.Payload()},
			}},
			{Name: "sys_pll1_pfd1_div2", Kind: KindPllPfdDiv2, Parent: "sys_pll1_pfd1", Configs: []PllConfig{
				{Frequency: 400000000, Payload: PfdParams{Mfi: 1, Mfn: 1, Div2: true}.Payload()},
			}},

			{Name: "video_pll1", Kind: KindPllVco, MaxFrequency: 594000000, Configs: []PllConfig{
				{Frequency: 594000000, Payload: FracPllParams{Rdiv: 1, Mfi: 99, Mfn: 0, Mfd: 1, Odiv: 4}.Payload()},
				{Frequency: 519750000, Payload: FracPllParams{Rdiv: 1, Mfi: 86, Mfn: 5, Mfd: 8, Odiv: 4}.Payload()},
			}},
			{Name: "audio_pll1", Kind: KindPllVco, Configs: []PllConfig{
				{Frequency: 393216000, Payload: FracPllParams{Rdiv: 1, Mfi: 32, Mfn: 768, Mfd: 1000, Odiv: 2}.Payload()},
				{Frequency: 361267200, Payload: FracPllParams{Rdiv: 1, Mfi: 30, Mfn: 1056, Mfd: 10000, Odiv: 2}.Payload()},
			}},

			{Name: "lpuart1_root", Kind: KindRootMux, Sources: uartSources},
			{Name: "lpuart2_root", Kind: KindRootMux, Sources: uartSources},
			{Name: "lpi2c8_root", Kind: KindRootMux, Sources: uartSources},
			{Name: "sai1_root", Kind: KindRootMux, Sources: []string{"osc_24m", "audio_pll1", "video_pll1"}},

			{Name: "lpuart1", Kind: KindIpLeaf, Parent: "lpuart1_root"},
			{Name: "lpuart2", Kind: KindIpLeaf, Parent: "lpuart2_root"},
			{Name: "lpi2c8", Kind: KindIpLeaf, Parent: "lpi2c8_root"},
			{Name: "sai1", Kind: KindIpLeaf, Parent: "sai1_root"},
		},
		Boot: BootPlan{
			Plls: []PllBootEntry{
				{Clock: "sys_pll1_pfd0_div2", AssumeOn: true, Rate: 500000000},
				{Clock: "sys_pll1_pfd1_div2", AssumeOn: true, Rate: 400000000},
			},
		},
	}
}
