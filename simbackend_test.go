package goccm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimBackendRecordsWrites(t *testing.T) {
	b := NewSimBackend(4)

	require.NoError(t, b.Gate(1, true))
	require.NoError(t, b.ProgramRoot(2, 3, 256))
	require.NoError(t, b.ProgramPll(0, FracPllParams{Rdiv: 1, Mfi: 125, Mfd: 1, Odiv: 3}.Payload()))
	require.NoError(t, b.ProgramPll(3, PfdParams{Mfi: 1}.Payload()))

	assert.True(t, b.Ungated(1))
	assert.False(t, b.Ungated(2))
	assert.False(t, b.Ungated(99))

	mux, div, ok := b.Root(2)
	require.True(t, ok)
	assert.Equal(t, uint32(3), mux)
	assert.Equal(t, uint32(256), div)

	frac, ok := b.FracPll(0)
	require.True(t, ok)
	assert.Equal(t, uint32(1000000000), frac.Rate(24000000))

	_, ok = b.Pfd(3)
	assert.True(t, ok)

	assert.Equal(t, 1, b.CountOps(OpGate))
	assert.Equal(t, 2, b.CountOps(OpProgramPll))
	assert.Equal(t, "program-root(2, mux=3, div=256)", b.Ops()[1].String())

	b.ClearOps()
	assert.Empty(t, b.Ops())
}

func TestSimBackendRejectsBadWrites(t *testing.T) {
	b := NewSimBackend(2)

	assert.Error(t, b.Gate(2, true))
	assert.Error(t, b.ProgramRoot(1, 0, 0))
	assert.Error(t, b.ProgramRoot(1, 0, 257))
	assert.Error(t, b.ProgramPll(1, nil))
	assert.Error(t, b.ProgramPll(1, []byte{'X', 0}))
	assert.Error(t, b.ProgramPll(1, []byte{payloadTagPfd}))

	assert.Empty(t, b.Ops())
}

func TestSimBackendFailNext(t *testing.T) {
	b := NewSimBackend(2)
	boom := errors.New("boom")

	b.FailNext(OpGate, boom)

	// other kinds are unaffected
	require.NoError(t, b.ProgramRoot(0, 0, 1))

	assert.Equal(t, boom, b.Gate(1, true))
	assert.False(t, b.Ungated(1))

	// only once
	assert.NoError(t, b.Gate(1, true))
	assert.Equal(t, 2, len(b.Ops()))
}
