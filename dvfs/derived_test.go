package dvfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColdTable(t *testing.T) {
	offs := []int64{50, 50, 50, 50, 50, 50}

	tests := []struct {
		name    string
		base    []int64
		nominal int
		want    []int64
	}{
		{"offset too high keeps base", []int64{1, 1, 216, 216, 300}, 4, []int64{1, 1, 166, 166, 250}},
		{"past nominal repeats", []int64{475, 513, 579, 620, 760, 910}, 3, []int64{425, 463, 529, 570, 570, 570}},
		{"nominal at last step", []int64{100, 200}, 1, []int64{50, 150}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ColdTable(tc.base, offs, tc.nominal)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestColdTableErrors(t *testing.T) {
	_, err := ColdTable([]int64{100, 120, 130}, []int64{0, 50, 0}, 2)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrNotMonotonic)

	_, err = ColdTable([]int64{100, 200}, nil, 0)
	assert.True(t, IsFatal(err))
	_, err = ColdTable([]int64{100, 200}, nil, 3)
	assert.True(t, IsFatal(err))
}

func TestSingleCoreTable(t *testing.T) {
	multi := CPUEntry("cpu_g", "vdd_cpu", 12, 3, MHz, 500, 600, 700, 800)
	multiRates, err := multi.Rates()
	require.NoError(t, err)

	t.Run("match with inherited step", func(t *testing.T) {
		s := NewStore().Add(
			CPUSingleEntry("cpu_0", "vdd_cpu", 12, 4, MHz, 1, 1, 1, 1),
			CPUSingleEntry("cpu_0", "vdd_cpu", 12, 3, MHz, 550, 0, 750, 800),
		)
		got, err := SingleCoreTable(s, "cpu_0", &multi, multiRates)
		require.NoError(t, err)
		assert.Equal(t, []int64{550 * MHz, 550 * MHz, 750 * MHz, 800 * MHz}, got)
	})

	t.Run("no entry for bin", func(t *testing.T) {
		s := NewStore().Add(CPUSingleEntry("cpu_0", "vdd_cpu", 13, 3, MHz, 550, 650, 750, 800))
		got, err := SingleCoreTable(s, "cpu_0", &multi, multiRates)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("top mismatch", func(t *testing.T) {
		s := NewStore().Add(CPUSingleEntry("cpu_0", "vdd_cpu", 12, 3, MHz, 550, 650, 750, 850))
		_, err := SingleCoreTable(s, "cpu_0", &multi, multiRates)
		require.Error(t, err)
		assert.True(t, IsFatal(err))
		assert.ErrorIs(t, err, ErrTopFreqMismatch)
	})

	t.Run("decreasing step", func(t *testing.T) {
		s := NewStore().Add(CPUSingleEntry("cpu_0", "vdd_cpu", 12, 3, MHz, 750, 550, 600, 800))
		got, err := SingleCoreTable(s, "cpu_0", &multi, multiRates)
		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, IsFatal(err))
		assert.ErrorIs(t, err, ErrNotMonotonic)
	})

	t.Run("wildcard multi entry never matches exact single entries", func(t *testing.T) {
		fb := CPUEntry("cpu_g", "vdd_cpu", Wildcard, Wildcard, MHz, 500, 600, 700, 800)
		s := NewStore().Add(CPUSingleEntry("cpu_0", "vdd_cpu", 12, 3, MHz, 550, 650, 750, 800))
		got, err := SingleCoreTable(s, "cpu_0", &fb, multiRates)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
