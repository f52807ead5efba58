package extrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parex-ode/parex/internal/ode"
)

func rowsCovered(t *testing.T, jobs []Job, k int) {
	t.Helper()
	seen := make(map[int]int)
	for _, j := range jobs {
		for _, row := range j.Rows {
			seen[row]++
		}
	}
	for row := 1; row <= k; row++ {
		assert.Equal(t, 1, seen[row], "row %d", row)
	}
	assert.Len(t, seen, k)
}

func TestPartition_FewerRowsThanWorkers(t *testing.T) {
	jobs := Partition(3, 8, ode.HarmonicSequence)

	require.Len(t, jobs, 3)
	rowsCovered(t, jobs, 3)
	// most expensive row first
	assert.Equal(t, []int{3}, jobs[0].Rows)
}

func TestPartition_SnakeDeal(t *testing.T) {
	jobs := Partition(4, 2, ode.HarmonicSequence)

	require.Len(t, jobs, 2)
	rowsCovered(t, jobs, 4)
	// forward pass 4,3 then backward pass 2,1
	assert.Equal(t, []int{4, 1}, jobs[0].Rows)
	assert.Equal(t, []int{3, 2}, jobs[1].Rows)
	assert.Equal(t, 5, jobs[0].Cost)
	assert.Equal(t, 5, jobs[1].Cost)
}

func TestPartition_MakespanFloor(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 4, 7} {
		for k := 1; k <= 10; k++ {
			jobs := Partition(k, workers, ode.DenseSequence)
			rowsCovered(t, jobs, k)
			// the deepest row alone bounds the makespan from below
			assert.GreaterOrEqual(t, Makespan(jobs), ode.DenseSequence(k),
				"k=%d workers=%d", k, workers)
		}
	}
}

func TestPartition_SingleWorkerGetsEverything(t *testing.T) {
	jobs := Partition(6, 1, ode.HarmonicEvenSequence)

	require.Len(t, jobs, 1)
	total := 0
	for j := 1; j <= 6; j++ {
		total += ode.HarmonicEvenSequence(j)
	}
	assert.Equal(t, total, jobs[0].Cost)
	assert.Equal(t, total, Makespan(jobs))
}
