package extrap

import "github.com/parex-ode/parex/internal/ode"

// Job assigns a set of table rows to one worker. Rows are listed in the
// order they were dealt, most expensive first.
type Job struct {
	Rows []int
	Cost int
}

// Partition splits rows 1..k across at most workers jobs so that the total
// substep count per job is roughly equal. Row k, the most expensive single
// task, is dealt first and alone sets the floor on the makespan.
//
// When k > workers the rows are dealt in snake order: one pass ascending
// over the workers, the next descending, so the worker that just received
// an expensive row picks up a cheap one next. This is a greedy
// multiprocessor-scheduling heuristic, not a proven optimum.
func Partition(k, workers int, seq ode.Sequence) []Job {
	if workers < 1 {
		workers = 1
	}
	if k <= workers {
		jobs := make([]Job, k)
		for i := 0; i < k; i++ {
			row := k - i
			jobs[i] = Job{Rows: []int{row}, Cost: seq(row)}
		}
		return jobs
	}

	jobs := make([]Job, workers)
	row := k
	forward := true
	for row > 0 {
		if forward {
			for w := 0; w < workers && row > 0; w++ {
				jobs[w].Rows = append(jobs[w].Rows, row)
				jobs[w].Cost += seq(row)
				row--
			}
		} else {
			for w := workers - 1; w >= 0 && row > 0; w-- {
				jobs[w].Rows = append(jobs[w].Rows, row)
				jobs[w].Cost += seq(row)
				row--
			}
		}
		forward = !forward
	}
	return jobs
}

// Makespan is the largest per-job cost, the sequential-evaluation proxy
// for one table build.
func Makespan(jobs []Job) int {
	worst := 0
	for _, j := range jobs {
		if j.Cost > worst {
			worst = j.Cost
		}
	}
	return worst
}
