// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goccm

// ClockGraph owns the nodes of one clock tree. Its shape is fixed at construction.
type ClockGraph struct {
	nodes  []*ClockNode
	byName map[string]int
}

// NewClockGraph builds and validates a graph. Node IDs follow descriptor order.
func NewClockGraph(descriptors []NodeDescriptor) (*ClockGraph, error) {
	g := &ClockGraph{
		nodes:  make([]*ClockNode, len(descriptors)),
		byName: make(map[string]int, len(descriptors)),
	}

	if len(descriptors) == 0 {
		return nil, NewClockError("empty topology", ErrorInvalidClock)
	}

	for i, d := range descriptors {
		if d.Name == "" {
			return nil, clockErrorf(ErrorInvalidClock, "clock %d has no name", i)
		}
		if _, dup := g.byName[d.Name]; dup {
			return nil, clockErrorf(ErrorInvalidClock, "duplicate clock name %s", d.Name)
		}
		if _, ok := kindCapabilities[d.Kind]; !ok {
			return nil, clockErrorf(ErrorInvalidClock, "clock %s has unknown kind %d", d.Name, d.Kind)
		}

		g.byName[d.Name] = i
		g.nodes[i] = &ClockNode{
			id:       ClockID(i),
			name:     d.Name,
			kind:     d.Kind,
			maxFreq:  d.MaxFrequency,
			freq:     d.Frequency,
			state:    d.InitialState,
			parent:   noParent,
			divider:  d.Divider,
			configs:  d.Configs,
			selected: noConfig,
		}
	}

	for i, d := range descriptors {
		if err := g.link(g.nodes[i], d); err != nil {
			return nil, err
		}
	}

	// leaves start out mirroring whatever their root was booted with
	for _, n := range g.nodes {
		if n.kind != KindRootMux {
			continue
		}
		if parent := g.Parent(n); n.freq == 0 && parent != nil && parent.configured() && n.divider != 0 {
			n.freq = parent.freq / n.divider
		}
		g.mirrorLeaves(n)
	}

	logger.Debugf("built clock graph with %d nodes", len(g.nodes))

	return g, nil
}

func (g *ClockGraph) resolveName(owner *ClockNode, name string) (*ClockNode, error) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, clockErrorf(ErrorInvalidParent, "clock %s references unknown clock %s", owner.name, name)
	}
	return g.nodes[idx], nil
}

func (g *ClockGraph) link(n *ClockNode, d NodeDescriptor) error {
	switch n.kind {
	case KindFixed:
		if d.Parent != "" || len(d.Sources) > 0 || len(d.Configs) > 0 {
			return clockErrorf(ErrorInvalidClock, "fixed clock %s cannot have parents or configs", n.name)
		}
		if n.freq == 0 {
			return clockErrorf(ErrorInvalidRate, "fixed clock %s needs a frequency", n.name)
		}
		if n.maxFreq == 0 {
			n.maxFreq = n.freq
		}
		n.state = GateUngated

	case KindPllVco, KindPllPfd, KindPllPfdDiv2:
		return g.linkPll(n, d)

	case KindRootMux:
		if len(d.Sources) == 0 {
			return clockErrorf(ErrorInvalidParent, "root %s has no sources", n.name)
		}
		if len(d.Configs) > 0 {
			return clockErrorf(ErrorInvalidClock, "root %s cannot have PLL configs", n.name)
		}
		for _, name := range d.Sources {
			src, err := g.resolveName(n, name)
			if err != nil {
				return err
			}
			if src.kind != KindFixed && !src.kind.IsPll() {
				return clockErrorf(ErrorInvalidParent, "root %s cannot be sourced by %s clock %s", n.name, src.kind, src.name)
			}
			n.sources = append(n.sources, int(src.id))
		}
		if d.Parent != "" {
			parent, err := g.resolveName(n, d.Parent)
			if err != nil {
				return err
			}
			if n.muxIndex(int(parent.id)) < 0 {
				return clockErrorf(ErrorInvalidParent, "%s is not a source of root %s", parent.name, n.name)
			}
			n.parent = int(parent.id)
		}

	case KindIpLeaf:
		if d.Parent == "" || len(d.Sources) > 0 || len(d.Configs) > 0 {
			return clockErrorf(ErrorInvalidParent, "ip clock %s needs exactly one root", n.name)
		}
		root, err := g.resolveName(n, d.Parent)
		if err != nil {
			return err
		}
		if root.kind != KindRootMux {
			return clockErrorf(ErrorInvalidParent, "ip clock %s must be fed by a root, not %s", n.name, root.kind)
		}
		n.parent = int(root.id)
		root.leaves = append(root.leaves, int(n.id))
	}

	return nil
}

func (g *ClockGraph) linkPll(n *ClockNode, d NodeDescriptor) error {
	if len(d.Configs) == 0 {
		return clockErrorf(ErrorInvalidClock, "PLL %s has no configurations", n.name)
	}
	if len(d.Sources) > 0 {
		return clockErrorf(ErrorInvalidClock, "PLL %s cannot have mux sources", n.name)
	}

	var want ClockKind

	switch n.kind {
	case KindPllVco:
		if d.Parent != "" {
			return clockErrorf(ErrorInvalidParent, "VCO %s is a top-level PLL", n.name)
		}
	case KindPllPfd:
		want = KindPllVco
	case KindPllPfdDiv2:
		want = KindPllPfd
	}

	var parent *ClockNode

	if n.kind != KindPllVco {
		var err error

		if d.Parent == "" {
			return clockErrorf(ErrorInvalidParent, "PLL %s needs a %s parent", n.name, want)
		}
		parent, err = g.resolveName(n, d.Parent)
		if err != nil {
			return err
		}
		if parent.kind != want {
			return clockErrorf(ErrorInvalidParent, "PLL %s needs a %s parent, %s is %s", n.name, want, parent.name, parent.kind)
		}
		n.parent = int(parent.id)
	}

	var highest uint32
	for i, c := range d.Configs {
		if c.Frequency == 0 {
			return clockErrorf(ErrorInvalidRate, "PLL %s config %d has no frequency", n.name, i)
		}
		if parent != nil && (c.ParentConfig < 0 || c.ParentConfig >= len(parent.configs)) {
			return clockErrorf(ErrorInvalidParent, "PLL %s config %d references missing config %d of %s",
				n.name, i, c.ParentConfig, parent.name)
		}
		if c.Frequency > highest {
			highest = c.Frequency
		}
	}

	if n.maxFreq == 0 {
		n.maxFreq = highest
	}

	// PLLs are never gated; their rate is only known once a configuration is committed
	n.state = GateUngated
	n.freq = 0

	return nil
}

func (n *ClockNode) muxIndex(idx int) int {
	for i, s := range n.sources {
		if s == idx {
			return i
		}
	}
	return -1
}

// Len returns the number of nodes; valid IDs are [0, Len()).
func (g *ClockGraph) Len() int {
	return len(g.nodes)
}

func (g *ClockGraph) Lookup(id ClockID) (*ClockNode, error) {
	if int64(id) >= int64(len(g.nodes)) {
		return nil, clockErrorf(ErrorInvalidClock, "clock id %d out of range [0, %d)", id, len(g.nodes))
	}
	return g.nodes[id], nil
}

func (g *ClockGraph) LookupByName(name string) (*ClockNode, error) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, clockErrorf(ErrorInvalidClock, "unknown clock %s", name)
	}
	return g.nodes[idx], nil
}

// MuxSources returns the source table of a root in selector order.
func (g *ClockGraph) MuxSources(id ClockID) ([]*ClockNode, error) {
	n, err := g.Lookup(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindRootMux {
		return nil, clockErrorf(ErrorInvalidClock, "clock %s is %s, not a root", n.name, n.kind)
	}

	sources := make([]*ClockNode, len(n.sources))
	for i, s := range n.sources {
		sources[i] = g.nodes[s]
	}
	return sources, nil
}

// Parent returns the current parent of n, nil if it has none.
func (g *ClockGraph) Parent(n *ClockNode) *ClockNode {
	if n.parent == noParent {
		return nil
	}
	return g.nodes[n.parent]
}

// Leaves returns the ip clocks fed by a root.
func (g *ClockGraph) Leaves(n *ClockNode) []*ClockNode {
	leaves := make([]*ClockNode, len(n.leaves))
	for i, l := range n.leaves {
		leaves[i] = g.nodes[l]
	}
	return leaves
}

func (g *ClockGraph) setRate(n *ClockNode, freq uint32) {
	n.freq = freq
	if n.kind == KindRootMux {
		g.mirrorLeaves(n)
	}
}

func (g *ClockGraph) mirrorLeaves(root *ClockNode) {
	for _, l := range root.leaves {
		g.nodes[l].freq = root.freq
	}
}

// refreshRoots recomputes every root currently sourced by src.
func (g *ClockGraph) refreshRoots(src *ClockNode) {
	for _, n := range g.nodes {
		if n.kind != KindRootMux || n.parent != int(src.id) || n.divider == 0 {
			continue
		}
		g.setRate(n, src.freq/n.divider)
		clockLog(n).Debugf("rate follows %s: %d Hz", src.name, n.freq)
	}
}
