package ode

// Stats accumulates the cost counters of one integration run. All counters
// are monotonically increasing over the run.
type Stats struct {
	// SequentialEvals counts RHS evaluations on the critical worker path,
	// the wall-clock cost proxy under parallel stage execution.
	SequentialEvals int
	// TotalEvals counts RHS evaluations across all workers.
	TotalEvals int
	// JacobianEvals counts analytic or finite-difference Jacobian builds.
	JacobianEvals int

	AcceptedSteps int
	RejectedSteps int

	// DegradedSolves counts iterative linear solves that hit their
	// iteration cap and proceeded with the best available approximation.
	DegradedSolves int

	// AvgStepSize and AvgOrder are averaged over accepted steps.
	AvgStepSize float64
	AvgOrder    float64
}

// Solution is the result of an integration: one state row per requested
// output time, plus the run statistics.
type Solution struct {
	Times  []float64
	States []State
	Stats  Stats
}

// At returns the state at output index i.
func (s *Solution) At(i int) State { return s.States[i] }

// Final returns the state at the last requested time.
func (s *Solution) Final() State { return s.States[len(s.States)-1] }
