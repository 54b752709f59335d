package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bbnote/goccm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
plls:
  - clock: video_pll1
    rate: 594000000
assignedClocks:
  - clock: lpuart1_root
    parent: osc_24m
    rate: 24000000
  - clock: lpi2c8_root
    rate: 100000000
`

func TestLoadBootPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	plan, err := loadBootPlan(path)
	require.NoError(t, err)

	assert.Equal(t, &goccm.BootPlan{
		Plls: []goccm.PllBootEntry{{Clock: "video_pll1", Rate: 594000000}},
		AssignedClocks: []goccm.AssignedClock{
			{Clock: "lpuart1_root", Parent: "osc_24m", Rate: 24000000},
			{Clock: "lpi2c8_root", Rate: 100000000},
		},
	}, plan)

	_, err = loadBootPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseBootPlanErrors(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field":  "plls:\n  - clock: video_pll1\n    rate: 1\n    speed: 2\n",
		"missing rate":   "plls:\n  - clock: video_pll1\n",
		"missing clock":  "assignedClocks:\n  - rate: 24000000\n",
		"not a document": "plls: [",
	} {
		_, err := parseBootPlan([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestBootPlanApplies(t *testing.T) {
	sh, _ := newTestShell(t)

	plan, err := parseBootPlan([]byte(samplePlan))
	require.NoError(t, err)
	require.NoError(t, sh.tree.Boot(plan))

	id, err := sh.tree.Resolve("lpi2c8")
	require.NoError(t, err)
	rate, err := sh.tree.GetRate(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(100000000), rate)
}
