package goccm

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClockTreeConfig(t *testing.T) {
	_, err := NewClockTree(fixedPllTopology(), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "%v", err)

	_, err = NewClockTree(fixedPllTopology(), &TreeConfig{})
	assert.Equal(t, ErrorInvalidConfig, ErrorCodeOf(err))

	config := NewTreeConfig(NewSimBackend(4))
	assert.Equal(t, MaxDivider, config.MaxDivider)
	assert.False(t, config.AllowUngatedRateChange)

	config.MaxDivider = MaxDivider + 1
	_, err = NewClockTree(fixedPllTopology(), config)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "%v", err)

	// a boot divider above the configured bound
	topology := []NodeDescriptor{
		{Name: "osc", Kind: KindFixed, Frequency: 24000000},
		{Name: "root", Kind: KindRootMux, Sources: []string{"osc"}, Parent: "osc", Divider: 200},
	}
	config = NewTreeConfig(NewSimBackend(2))
	config.MaxDivider = 100
	_, err = NewClockTree(topology, config)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "%v", err)

	// topology errors keep their own codes
	_, err = NewClockTree(nil, NewTreeConfig(NewSimBackend(1)))
	assert.True(t, errors.Is(err, ErrInvalidClock), "%v", err)
}

func TestResolve(t *testing.T) {
	tree, _ := newTestTree(t, fixedPllTopology(), nil)

	id, err := tree.Resolve("pll_a")
	require.NoError(t, err)
	assert.Equal(t, ClockID(1), id)

	_, err = tree.Resolve("pll_b")
	assert.True(t, errors.Is(err, ErrInvalidClock))
}

func TestGetRate(t *testing.T) {
	tree, _ := newTestTree(t, fixedPllTopology(), nil)

	rate, err := tree.GetRate(mustResolve(t, tree, "osc_24m"))
	require.NoError(t, err)
	assert.Equal(t, uint32(24000000), rate)

	for _, name := range []string{"pll_a", "root", "leaf"} {
		_, err := tree.GetRate(mustResolve(t, tree, name))
		assert.True(t, errors.Is(err, ErrNotConfigured), name)
	}

	_, err = tree.GetRate(ClockID(99))
	assert.True(t, errors.Is(err, ErrInvalidClock))
}

func TestSetRateUnsupportedKinds(t *testing.T) {
	tree, backend := newTestTree(t, fixedPllTopology(), nil)

	for _, name := range []string{"osc_24m", "leaf"} {
		id := mustResolve(t, tree, name)

		_, err := tree.SetRate(id, 24000000)
		assert.True(t, errors.Is(err, ErrUnsupportedOperation), name)

		_, err = tree.RoundRate(id, 24000000)
		assert.True(t, errors.Is(err, ErrUnsupportedOperation), name)
	}

	_, err := tree.SetRate(ClockID(99), 24000000)
	assert.True(t, errors.Is(err, ErrInvalidClock))

	assert.Empty(t, backend.Ops())
}

func TestAssignParent(t *testing.T) {
	tree, backend := newTestTree(t, fixedPllTopology(), nil)
	osc := mustResolve(t, tree, "osc_24m")
	pll := mustResolve(t, tree, "pll_a")
	root := mustResolve(t, tree, "root")
	leaf := mustResolve(t, tree, "leaf")

	// dummy parent is accepted on any clock and does nothing
	assert.NoError(t, tree.AssignParent(root, DummyClockID))
	assert.NoError(t, tree.AssignParent(leaf, DummyClockID))
	assert.Empty(t, backend.Ops())

	require.NoError(t, tree.AssignParent(root, osc))
	assert.Equal(t, []BackendOp{
		{Kind: OpGate, Clock: root, On: false},
		{Kind: OpProgramRoot, Clock: root, Mux: 0, Divider: 1},
	}, backend.Ops())

	rate, err := tree.GetRate(root)
	require.NoError(t, err)
	assert.Equal(t, uint32(24000000), rate)

	// the same parent again writes nothing
	backend.ClearOps()
	require.NoError(t, tree.AssignParent(root, osc))
	assert.Empty(t, backend.Ops())

	// the divider is kept across parent changes
	_, err = tree.SetRate(root, 12000000)
	require.NoError(t, err)
	_, err = tree.SetRate(pll, 600000000)
	require.NoError(t, err)
	require.NoError(t, tree.AssignParent(root, pll))

	rate, err = tree.GetRate(root)
	require.NoError(t, err)
	assert.Equal(t, uint32(300000000), rate)

	status, err := tree.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "pll_a", status[root].Parent)
	assert.Equal(t, uint32(2), status[root].Divider)
}

func TestAssignParentErrors(t *testing.T) {
	tree, backend := newTestTree(t, fixedPllTopology(), nil)
	osc := mustResolve(t, tree, "osc_24m")
	pll := mustResolve(t, tree, "pll_a")
	root := mustResolve(t, tree, "root")
	leaf := mustResolve(t, tree, "leaf")

	tests := []struct {
		name   string
		clock  ClockID
		parent ClockID
		want   error
	}{
		{"leaf", leaf, root, ErrInvalidParent},
		{"pll", pll, osc, ErrInvalidParent},
		{"not a source", root, leaf, ErrInvalidParent},
		{"missing parent", root, ClockID(42), ErrInvalidParent},
		{"missing clock", ClockID(42), osc, ErrInvalidClock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tree.AssignParent(tt.clock, tt.parent)
			assert.True(t, errors.Is(err, tt.want), "%v", err)
		})
	}

	assert.Empty(t, backend.Ops())
}

func TestSnapshot(t *testing.T) {
	tree, _ := newTestTree(t, pllHierarchyTopology(), nil)
	div2 := mustResolve(t, tree, "pfd0_div2")

	_, err := tree.SetRate(div2, 400000000)
	require.NoError(t, err)

	status, err := tree.Snapshot()
	require.NoError(t, err)
	require.Len(t, status, 8)

	for i, s := range status {
		assert.Equal(t, ClockID(i), s.ID)
	}

	s := status[div2]
	assert.Equal(t, "pfd0_div2", s.Name)
	assert.Equal(t, KindPllPfdDiv2, s.Kind)
	assert.Equal(t, uint32(400000000), s.Rate)
	assert.Equal(t, "pfd0", s.Parent)
	assert.Equal(t, 1, s.SelectedConfig)

	assert.Equal(t, uint32(800000000), status[mustResolve(t, tree, "pfd0")].Rate)
	assert.Equal(t, noConfig, status[mustResolve(t, tree, "pfd1")].SelectedConfig)
}

func TestLockTimeout(t *testing.T) {
	tree, backend := newTestTree(t, fixedPllTopology(), func(c *TreeConfig) {
		c.LockTimeout = 20 * time.Millisecond
	})
	root := mustResolve(t, tree, "root")

	require.NoError(t, tree.acquire())

	err := tree.TurnOn(root)
	assert.True(t, errors.Is(err, ErrBusy), "%v", err)
	_, err = tree.GetRate(root)
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Empty(t, backend.Ops())

	tree.release()

	assert.NoError(t, tree.TurnOn(root))
}

func TestConcurrentTurnOn(t *testing.T) {
	tree, backend := newTestTree(t, fixedPllTopology(), nil)
	root := mustResolve(t, tree, "root")

	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tree.TurnOn(root))
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, backend.CountOps(OpGate))
	assert.True(t, backend.Ungated(root))
}

func TestConcurrentSetRate(t *testing.T) {
	tree, backend := newTestTree(t, fixedPllTopology(), allowUngated)
	root := mustResolve(t, tree, "root")
	require.NoError(t, tree.TurnOn(root))
	backend.ClearOps()

	var wg sync.WaitGroup
	var mu sync.Mutex
	alreadySet := 0

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tree.SetRate(root, 6000000)
			if IsAlreadySet(err) {
				mu.Lock()
				alreadySet++
				mu.Unlock()
				return
			}
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, 7, alreadySet)
	assert.Equal(t, 1, backend.CountOps(OpProgramRoot))
	assert.Equal(t, 2, backend.CountOps(OpGate))
}
