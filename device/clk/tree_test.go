package clk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc_dvfs/dvfs"
)

var _ dvfs.ClockService = (*Tree)(nil)
var _ dvfs.MaxRateSetter = (*Clock)(nil)

func TestRoundRate(t *testing.T) {
	tree := NewTree(Spec{Name: "cbus", MinRate: 10 * dvfs.MHz, MaxRate: 500 * dvfs.MHz, StepHz: dvfs.MHz})
	c, ok := tree.Lookup("cbus")
	require.True(t, ok)

	tests := []struct {
		in, out int64
	}{
		{0, 10 * dvfs.MHz},
		{10*dvfs.MHz + 1000, 11 * dvfs.MHz},
		{200 * dvfs.MHz, 200 * dvfs.MHz},
		{900 * dvfs.MHz, 500 * dvfs.MHz},
	}
	for _, tc := range tests {
		got, err := c.RoundRate(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.out, got, "round %d", tc.in)
	}
}

func TestSetRateAndMax(t *testing.T) {
	tree := NewTree(Spec{Name: "3d", Rate: 400 * dvfs.MHz, MaxRate: 800 * dvfs.MHz, StepHz: dvfs.MHz})
	c, _ := tree.Get("3d")

	require.NoError(t, c.SetRate(600*dvfs.MHz))
	assert.Equal(t, 600*dvfs.MHz, c.Rate())

	c.SetMaxRate(500 * dvfs.MHz)
	assert.Equal(t, 500*dvfs.MHz, c.Rate())
	assert.ErrorIs(t, c.SetRate(600*dvfs.MHz), ErrRateOutOfRange)

	boom := errors.New("boom")
	c.FailAt(300*dvfs.MHz, boom)
	assert.ErrorIs(t, c.SetRate(300*dvfs.MHz), boom)
	assert.Equal(t, []int64{600 * dvfs.MHz}, c.History())
}

func TestLookupMissing(t *testing.T) {
	tree := NewTree()
	c, ok := tree.Lookup("nope")
	assert.False(t, ok)
	assert.Nil(t, c)
	assert.Empty(t, tree.Names())
}
