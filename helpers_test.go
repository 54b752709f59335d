package goccm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedPllTopology is the 24 MHz oscillator / PLL_A / root / leaf graph.
func fixedPllTopology() []NodeDescriptor {
	return []NodeDescriptor{
		{Name: "osc_24m", Kind: KindFixed, Frequency: 24000000},
		{Name: "pll_a", Kind: KindPllVco, Configs: []PllConfig{
			{Frequency: 500000000, Payload: FracPllParams{Rdiv: 1, Mfi: 125, Mfd: 1, Odiv: 6}.Payload()},
			{Frequency: 600000000, Payload: FracPllParams{Rdiv: 1, Mfi: 100, Mfd: 1, Odiv: 4}.Payload()},
		}},
		{Name: "root", Kind: KindRootMux, Sources: []string{"osc_24m", "pll_a"}},
		{Name: "leaf", Kind: KindIpLeaf, Parent: "root"},
	}
}

// pllHierarchyTopology has one VCO shared by two PFDs, one of them with a div2 stage.
func pllHierarchyTopology() []NodeDescriptor {
	return []NodeDescriptor{
		{Name: "vco", Kind: KindPllVco, Configs: []PllConfig{
			{Frequency: 1000000000, Payload: FracPllParams{Rdiv: 1, Mfi: 125, Mfd: 1, Odiv: 3}.Payload()},
			{Frequency: 1200000000, Payload: FracPllParams{Rdiv: 1, Mfi: 100, Mfd: 1, Odiv: 2}.Payload()},
		}},
		{Name: "pfd0", Kind: KindPllPfd, Parent: "vco", Configs: []PllConfig{
			{Frequency: 1000000000, Payload: PfdParams{Mfi: 1}.Payload(), ParentConfig: 0},
			{Frequency: 800000000, Payload: PfdParams{Mfi: 1, Mfn: 1}.Payload(), ParentConfig: 0},
			{Frequency: 1200000000, Payload: PfdParams{Mfi: 1}.Payload(), ParentConfig: 1},
		}},
		{Name: "pfd0_div2", Kind: KindPllPfdDiv2, Parent: "pfd0", Configs: []PllConfig{
			{Frequency: 500000000, Payload: PfdParams{Mfi: 1, Div2: true}.Payload(), ParentConfig: 0},
			{Frequency: 400000000, Payload: PfdParams{Mfi: 1, Mfn: 1, Div2: true}.Payload(), ParentConfig: 1},
		}},
		{Name: "pfd1", Kind: KindPllPfd, Parent: "vco", Configs: []PllConfig{
			{Frequency: 960000000, Payload: PfdParams{Mfi: 1, Mfn: 1}.Payload(), ParentConfig: 1},
			{Frequency: 800000000, Payload: PfdParams{Mfi: 1, Mfn: 1}.Payload(), ParentConfig: 0},
		}},
		{Name: "osc_24m", Kind: KindFixed, Frequency: 24000000},
		{Name: "root", Kind: KindRootMux, Sources: []string{"osc_24m", "vco", "pfd0_div2"}},
		{Name: "leaf", Kind: KindIpLeaf, Parent: "root"},
	}
}

func newTestTree(t *testing.T, topology []NodeDescriptor, tweak func(*TreeConfig)) (*ClockTree, *SimBackend) {
	t.Helper()

	backend := NewSimBackend(len(topology))
	config := NewTreeConfig(backend)
	if tweak != nil {
		tweak(config)
	}

	tree, err := NewClockTree(topology, config)
	require.NoError(t, err)

	return tree, backend
}

func mustResolve(t *testing.T, tree *ClockTree, name string) ClockID {
	t.Helper()

	id, err := tree.Resolve(name)
	require.NoError(t, err)
	return id
}

func allowUngated(c *TreeConfig) {
	c.AllowUngatedRateChange = true
}
