package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/parex-ode/parex/internal/config"
	"github.com/parex-ode/parex/internal/extrap"
	"github.com/parex-ode/parex/internal/ode"
	"github.com/parex-ode/parex/internal/problems"
	"github.com/parex-ode/parex/internal/store"
	"github.com/parex-ode/parex/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string

	method     string
	adaptivity string
	smoothing  string
	sequence   string
	absTol     float64
	relTol     float64
	initStep   float64
	maxSteps   int
	order      int
	workers    int
	outputs    int
	tStart     float64
	tEnd       float64
	freezeJac  bool
	iterative  bool
	noJac      bool

	saveRun bool
	asJSON  bool
	// Component plotted by the live view
	component int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "parex",
		Short: "parallel extrapolation ODE solver",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".parex", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  runProblem,
	}
	addSolverFlags(runCmd)
	runCmd.Flags().BoolVar(&saveRun, "save", false, "persist the run in the data directory")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "write the full solution as JSON to stdout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "integrate with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)
	liveCmd.Flags().IntVar(&component, "component", 0, "state component to chart")

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [method...]",
		Short: "compare stage methods on one problem",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareMethods,
	}
	addSolverFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [problem]",
		Short: "benchmark tolerances and worker counts",
		Args:  cobra.ExactArgs(1),
		RunE:  benchProblem,
	}
	addSolverFlags(benchCmd)

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		RunE:  listProblems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list run presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd,
		compareCmd, benchCmd, problemsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "named preset configuration")
	cmd.Flags().StringVar(&method, "method", "", "stage method")
	cmd.Flags().StringVar(&adaptivity, "adaptivity", "", "adaptivity mode: order, step, fixed")
	cmd.Flags().StringVar(&smoothing, "smoothing", "", "midpoint smoothing: none, gragg, stabilized")
	cmd.Flags().StringVar(&sequence, "sequence", "", "step-number sequence")
	cmd.Flags().Float64Var(&absTol, "abstol", 0, "absolute tolerance")
	cmd.Flags().Float64Var(&relTol, "reltol", 0, "relative tolerance")
	cmd.Flags().Float64Var(&initStep, "step", 0, "initial (or fixed) step size")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step budget")
	cmd.Flags().IntVar(&order, "order", 0, "extrapolation order")
	cmd.Flags().IntVar(&workers, "workers", 0, "stage worker count")
	cmd.Flags().IntVar(&outputs, "outputs", 0, "number of output times")
	cmd.Flags().Float64Var(&tStart, "start", 0, "integration start time")
	cmd.Flags().Float64Var(&tEnd, "end", 0, "integration end time")
	cmd.Flags().BoolVar(&freezeJac, "freeze-jacobian", false, "reuse the Jacobian across steps")
	cmd.Flags().BoolVar(&iterative, "iterative", false, "iterative linear solves")
	cmd.Flags().BoolVar(&noJac, "no-jacobian", false, "ignore the analytic Jacobian")
}

// buildConfig resolves config file, preset and flags in that order of
// increasing precedence.
func buildConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if preset != "" {
		p := config.GetPreset(problem, preset)
		if p == nil {
			return nil, fmt.Errorf("no preset %q for problem %q", preset, problem)
		}
		copied := *p
		cfg = &copied
	}
	cfg.Problem = problem

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("adaptivity") {
		cfg.Adaptivity = adaptivity
	}
	if flags.Changed("smoothing") {
		cfg.Smoothing = smoothing
	}
	if flags.Changed("sequence") {
		cfg.Sequence = sequence
	}
	if flags.Changed("abstol") {
		cfg.AbsTol = absTol
	}
	if flags.Changed("reltol") {
		cfg.RelTol = relTol
	}
	if flags.Changed("step") {
		cfg.InitStep = initStep
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("order") {
		cfg.Order = order
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("outputs") {
		cfg.Outputs = outputs
	}
	if flags.Changed("start") {
		cfg.Start = tStart
	}
	if flags.Changed("end") {
		cfg.End = tEnd
	}
	if flags.Changed("freeze-jacobian") {
		cfg.FreezeJacobian = freezeJac
	}
	if flags.Changed("iterative") {
		cfg.IterativeSolve = iterative
	}
	if flags.Changed("no-jacobian") {
		cfg.NoAnalyticJacobian = noJac
	}
	return cfg, nil
}

func integrate(cfg *config.Config) (problems.Problem, *ode.Solution, ode.Options, error) {
	p, err := problems.Get(cfg.Problem)
	if err != nil {
		return problems.Problem{}, nil, ode.Options{}, err
	}
	times, err := cfg.Times(p)
	if err != nil {
		return p, nil, ode.Options{}, err
	}
	opts := cfg.Options()
	sol, err := extrap.Integrate(p.RHS, p.Jac, p.Y0, times, opts)
	return p, sol, opts, err
}

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	p, sol, opts, err := integrate(cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if asJSON {
		return store.WriteJSON(os.Stdout, p.Name, string(opts.Method), sol)
	}

	fmt.Printf("problem: %s (%s)\n", p.Name, p.Desc)
	fmt.Printf("method:  %s, %s adaptivity\n", opts.Method, opts.Adaptivity)
	fmt.Printf("time:    %v\n\n", elapsed)
	printStats(sol.Stats)

	final := sol.Final()
	fmt.Printf("\nfinal state at t=%g:\n", sol.Times[len(sol.Times)-1])
	for i, v := range final {
		fmt.Printf("  y%d = %.12g\n", i, v)
	}

	if saveRun {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(p.Name, opts, sol)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved as %s\n", runID)
	}
	return nil
}

func printStats(s ode.Stats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "steps\t%d accepted, %d rejected\n", s.AcceptedSteps, s.RejectedSteps)
	fmt.Fprintf(w, "evals\t%d total, %d sequential\n", s.TotalEvals, s.SequentialEvals)
	if s.JacobianEvals > 0 {
		fmt.Fprintf(w, "jacobians\t%d\n", s.JacobianEvals)
	}
	if s.DegradedSolves > 0 {
		fmt.Fprintf(w, "degraded solves\t%d\n", s.DegradedSolves)
	}
	fmt.Fprintf(w, "avg step\t%.3g\n", s.AvgStepSize)
	fmt.Fprintf(w, "avg order\t%.2f\n", s.AvgOrder)
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tMETHOD\tSTEPS\tEVALS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Stats.AcceptedSteps,
			run.Stats.TotalEvals,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	if len(sol.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("samples: %d\n\n", len(sol.States))

	numVars := len(sol.States[0])
	if numVars > 6 {
		numVars = 6
	}
	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(sol.States))
		for i := range sol.States {
			data[i] = sol.States[i][varIdx]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("y%d vs time", varIdx)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	sol.Stats = meta.Stats
	return store.WriteJSON(os.Stdout, meta.Problem, meta.Method, sol)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	p, err := problems.Get(cfg.Problem)
	if err != nil {
		return err
	}
	times, err := cfg.Times(p)
	if err != nil {
		return err
	}
	opts := cfg.Options()

	ch := make(chan tui.Progress, 1)
	go func() {
		defer close(ch)
		y := p.Y0
		var agg ode.Stats
		for i := 1; i < len(times); i++ {
			seg := []float64{times[i-1], times[i]}
			sol, err := extrap.Integrate(p.RHS, p.Jac, y, seg, opts)
			if err != nil {
				ch <- tui.Progress{T: times[i-1], Y: y, Stats: agg, Err: err, Done: true}
				return
			}
			y = sol.Final()
			mergeStats(&agg, sol.Stats)
			ch <- tui.Progress{T: times[i], Y: y, Stats: agg, Done: i == len(times)-1}
		}
	}()

	model := tui.NewLive(p.Name, component, times[0], times[len(times)-1], ch)
	_, err = tea.NewProgram(model).Run()
	return err
}

func mergeStats(agg *ode.Stats, s ode.Stats) {
	total := agg.AcceptedSteps + s.AcceptedSteps
	if total > 0 {
		agg.AvgStepSize = (agg.AvgStepSize*float64(agg.AcceptedSteps) +
			s.AvgStepSize*float64(s.AcceptedSteps)) / float64(total)
		agg.AvgOrder = (agg.AvgOrder*float64(agg.AcceptedSteps) +
			s.AvgOrder*float64(s.AcceptedSteps)) / float64(total)
	}
	agg.AcceptedSteps = total
	agg.RejectedSteps += s.RejectedSteps
	agg.TotalEvals += s.TotalEvals
	agg.SequentialEvals += s.SequentialEvals
	agg.JacobianEvals += s.JacobianEvals
	agg.DegradedSolves += s.DegradedSolves
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	p, err := problems.Get(cfg.Problem)
	if err != nil {
		return err
	}
	times, err := cfg.Times(p)
	if err != nil {
		return err
	}

	methods := args[1:]
	if len(methods) == 0 {
		methods = []string{"midpoint", "euler", "implicit-midpoint", "semi-implicit-midpoint"}
	}

	type outcome struct {
		sol     *ode.Solution
		elapsed time.Duration
		err     error
	}
	outcomes := make([]outcome, len(methods))

	var g errgroup.Group
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			opts := cfg.Options()
			opts.Method = ode.Method(m)
			start := time.Now()
			sol, err := extrap.Integrate(p.RHS, p.Jac, p.Y0, times, opts)
			outcomes[i] = outcome{sol: sol, elapsed: time.Since(start), err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("comparing on %s over [%g, %g]\n\n", p.Name, times[0], times[len(times)-1])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tREJ\tEVALS\tSEQ\tJAC\tTIME")
	for i, m := range methods {
		o := outcomes[i]
		if o.err != nil {
			fmt.Fprintf(w, "%s\tfailed: %v\n", m, o.err)
			continue
		}
		s := o.sol.Stats
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%v\n",
			m, s.AcceptedSteps, s.RejectedSteps, s.TotalEvals,
			s.SequentialEvals, s.JacobianEvals, o.elapsed.Round(time.Microsecond))
	}
	return w.Flush()
}

func benchProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	p, err := problems.Get(cfg.Problem)
	if err != nil {
		return err
	}
	times, err := cfg.Times(p)
	if err != nil {
		return err
	}

	tols := []float64{1e-4, 1e-6, 1e-8, 1e-10}
	workerCounts := []int{1, 2, 4}

	fmt.Printf("benchmarking %s\n\n", p.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOL\tWORKERS\tSTEPS\tEVALS\tSEQ\tAVG ORDER\tTIME")
	for _, tol := range tols {
		for _, wc := range workerCounts {
			opts := cfg.Options()
			opts.AbsTol, opts.RelTol = tol, tol
			opts.Workers = wc

			start := time.Now()
			sol, err := extrap.Integrate(p.RHS, p.Jac, p.Y0, times, opts)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			s := sol.Stats
			fmt.Fprintf(w, "%.0e\t%d\t%d\t%d\t%d\t%.2f\t%v\n",
				tol, wc, s.AcceptedSteps, s.TotalEvals, s.SequentialEvals,
				s.AvgOrder, elapsed.Round(time.Microsecond))
		}
	}
	return w.Flush()
}

func listProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIM\tSTIFF\tDESCRIPTION")
	for _, name := range problems.List() {
		p, err := problems.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%s\n", p.Name, p.Dim, p.Stiff, p.Desc)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		names := config.ListPresets(args[0])
		if names == nil {
			return fmt.Errorf("no presets for problem %q", args[0])
		}
		for _, name := range names {
			cfg := config.GetPreset(args[0], name)
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("--- %s\n%s\n", name, data)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tPRESETS")
	for _, name := range problems.List() {
		presets := config.ListPresets(name)
		if len(presets) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%v\n", name, presets)
	}
	return w.Flush()
}
