package dvfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLadderLookups(t *testing.T) {
	l := Ladder{950, 1000, 1050, 0, 0}

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 1050, l.Top())
	assert.Equal(t, 950, l.Bottom())
	assert.Equal(t, 1, l.Index(1000))
	assert.Equal(t, -1, l.Index(1020))

	tests := []struct {
		mv        int
		floorIdx  int
		floorStep int
		ceilStep  int
	}{
		{900, -1, 950, 950},
		{950, 0, 950, 950},
		{1020, 1, 1000, 1050},
		{1050, 2, 1050, 1050},
		{1200, 2, 1050, 1050},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.floorIdx, l.FloorIndex(tc.mv), "FloorIndex(%d)", tc.mv)
		_, fs := l.FloorStep(tc.mv)
		assert.Equal(t, tc.floorStep, fs, "FloorStep(%d)", tc.mv)
		_, cs := l.CeilStep(tc.mv)
		assert.Equal(t, tc.ceilStep, cs, "CeilStep(%d)", tc.mv)
	}
}

func TestLadderValidate(t *testing.T) {
	require.NoError(t, Ladder{800, 900, 1000}.Validate())
	assert.ErrorIs(t, Ladder{}.Validate(), ErrBadTable)
	assert.ErrorIs(t, Ladder{0, 900}.Validate(), ErrBadTable)
	assert.ErrorIs(t, Ladder{800, 800}.Validate(), ErrNotMonotonic)
	assert.ErrorIs(t, Ladder{900, 800}.Validate(), ErrNotMonotonic)
}

func TestLadderOffsetKeepsTerminator(t *testing.T) {
	l := Ladder{800, 900, 0}
	aged := l.Offset(25)
	assert.Equal(t, Ladder{775, 875, 0}, aged)
	assert.Equal(t, Ladder{800, 900, 0}, l)
}

func TestCoreNominalIndex(t *testing.T) {
	l := Ladder{950, 1000, 1050}

	// EDP limit below the silicon level wins and is floored to a step.
	assert.Equal(t, 1, coreNominalIndex(l, 1100, 1000))
	assert.Equal(t, 1, coreNominalIndex(l, 1000, 0))
	assert.Equal(t, 2, coreNominalIndex(l, 1300, 0))
	assert.Equal(t, 0, coreNominalIndex(l, 1040, 975))
	assert.Equal(t, -1, coreNominalIndex(l, 900, 0))
}
