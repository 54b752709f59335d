// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

// PllConfig is one entry of a PLL level's configuration table.
type PllConfig struct {
	// Frequency is the exact output rate in Hz this entry yields.
	Frequency uint32
	// Payload is handed to the backend untouched (see payload.go for the
	// encodings SimBackend understands).
	Payload []byte
	// ParentConfig indexes the parent level's table. Ignored for top-level PLLs.
	ParentConfig int
}

// NodeDescriptor declares one node of a topology. Parent and Sources reference
// other descriptors by name.
type NodeDescriptor struct {
	Name string
	Kind ClockKind

	// Frequency is the boot-time rate: mandatory for fixed sources, optional for
	// roots already configured by the boot loader.
	Frequency uint32
	// MaxFrequency is the ceiling of fixed and PLL sources. Fixed sources default
	// to Frequency.
	MaxFrequency uint32

	// Parent is the root of an ip clock, the level below a PFD, or the current
	// mux selection of a root.
	Parent string
	// Sources is the mux table of a root. Index is the hardware selector.
	Sources []string
	// Divider is the boot-time divider of a root (0 means unknown).
	Divider uint32

	Configs []PllConfig

	InitialState GateState
}

// ClockNode is a node of the clock graph. Only frequency, gate state, current
// parent/divider of roots and the selected PLL configuration change at runtime.
type ClockNode struct {
	id      ClockID
	name    string
	kind    ClockKind
	maxFreq uint32

	freq  uint32 // 0: not configured
	state GateState

	parent  int   // index into the graph, noParent if none
	sources []int // mux table of roots
	divider uint32

	configs  []PllConfig
	selected int // index into configs, noConfig if none

	leaves []int // ip clocks fed by a root
}

func (n *ClockNode) ID() ClockID {
	return n.id
}

func (n *ClockNode) Name() string {
	return n.name
}

func (n *ClockNode) Kind() ClockKind {
	return n.kind
}

// Rate returns the cached frequency; false if the node is not configured yet.
func (n *ClockNode) Rate() (uint32, bool) {
	return n.freq, n.freq != 0
}

func (n *ClockNode) MaxFrequency() uint32 {
	return n.maxFreq
}

func (n *ClockNode) GateState() GateState {
	return n.state
}

// SelectedConfig returns the index of the committed PLL configuration.
func (n *ClockNode) SelectedConfig() (int, bool) {
	return n.selected, n.selected != noConfig
}

func (n *ClockNode) Configs() []PllConfig {
	return n.configs
}

func (n *ClockNode) configured() bool {
	return n.freq != 0
}

// rateLimit is the highest rate a root may request from this source.
func (n *ClockNode) rateLimit() uint32 {
	if n.maxFreq != 0 {
		return n.maxFreq
	}
	return n.freq
}
