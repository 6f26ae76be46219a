// Command vsched solves vehicle scheduling instances from the command line.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"vehicle-scheduling-service/internal/adapters/cache"
	"vehicle-scheduling-service/internal/adapters/instancefile"
	"vehicle-scheduling-service/internal/adapters/report"
	"vehicle-scheduling-service/internal/adapters/repositories"
	"vehicle-scheduling-service/internal/config"
	"vehicle-scheduling-service/internal/domain"
	"vehicle-scheduling-service/internal/platform/db"
	"vehicle-scheduling-service/internal/platform/obs"
	"vehicle-scheduling-service/internal/platform/sysinfo"
	"vehicle-scheduling-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "vsched"
	app.Usage = "greedy MDVSP and VSP vehicle scheduling"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "config.yaml", EnvVar: "CONFIG_PATH", Usage: "optional YAML config file"},
		cli.StringFlag{Name: "dir, d", Usage: "instance directory (overrides INSTANCE_DIR)"},
		cli.StringFlag{Name: "boundary", Usage: "nonstrict or strict time-window boundary (overrides BOUNDARY_POLICY)"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list",
			Usage:  "list instances in the instance directory",
			Flags:  []cli.Flag{cli.BoolFlag{Name: "stats", Usage: "load each instance and print its size"}},
			Action: listCmd,
		},
		{
			Name:      "solve",
			Usage:     "solve one instance",
			ArgsUsage: "<instance>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "algorithm, a", Value: services.AlgorithmMDVSP, Usage: "mdvsp or vsp"},
				cli.StringFlag{Name: "strategy, s", Usage: "VSP strategy or 'best'"},
				cli.StringFlag{Name: "out, o", Usage: "write the solution file here"},
				cli.BoolFlag{Name: "diagnostics", Usage: "write the built cost matrix to DIAGNOSTICS_DIR"},
				cli.BoolFlag{Name: "validate", Usage: "re-check the solution against the instance"},
				cli.BoolFlag{Name: "verbose, v", Usage: "log every assignment"},
			},
			Action: solveCmd,
		},
		{
			Name:  "batch",
			Usage: "solve many instances and write CSV and text reports",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "algorithm, a", Value: services.AlgorithmMDVSP, Usage: "mdvsp or vsp"},
				cli.StringFlag{Name: "strategy, s", Usage: "VSP strategy or 'best'"},
				cli.IntFlag{Name: "limit", Usage: "solve at most this many instances"},
				cli.IntFlag{Name: "workers", Usage: "concurrent solves (overrides WORKERS)"},
				cli.StringFlag{Name: "results", Usage: "report directory (overrides RESULTS_DIR)"},
				cli.BoolFlag{Name: "validate", Usage: "re-check every solution"},
				cli.IntFlag{Name: "top", Value: 5, Usage: "print the N cheapest runs"},
			},
			Action: batchCmd,
		},
	}
	return app
}

// loadConfig applies global flags over the file and environment config.
func loadConfig(c *cli.Context) (config.Config, domain.BoundaryPolicy, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cfg, domain.NonStrict, err
	}
	if dir := c.GlobalString("dir"); dir != "" {
		cfg.InstanceDir = dir
	}
	if b := c.GlobalString("boundary"); b != "" {
		cfg.Boundary = b
	}
	boundary, err := cfg.BoundaryPolicy()
	return cfg, boundary, err
}

// signalContext is cancelled on interrupt so long batches stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	return obs.WithRequestID(ctx, ""), cancel
}

func listCmd(c *cli.Context) error {
	cfg, boundary, err := loadConfig(c)
	if err != nil {
		return exitError(err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	source := instancefile.NewFileInstanceSource(cfg.InstanceDir, boundary)
	names, err := source.ListInstances(ctx)
	if err != nil {
		return exitError(err)
	}
	for _, name := range names {
		if !c.Bool("stats") {
			fmt.Println(name)
			continue
		}
		inst, err := source.LoadInstance(ctx, name, domain.MDVSP)
		if err != nil {
			fmt.Printf("%-16s error: %v\n", name, err)
			continue
		}
		st := inst.Stats()
		fmt.Printf("%-16s depots=%d tasks=%d vehicles=%d feasible_arcs=%.1f%%\n",
			name, st.Depots, st.Tasks, st.Vehicles, st.Arcs.FeasibleRatio*100)
	}
	return nil
}

func solveCmd(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return usageError("solve: instance name is required")
	}
	cfg, boundary, err := loadConfig(c)
	if err != nil {
		return exitError(err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	source := instancefile.NewFileInstanceSource(cfg.InstanceDir, boundary)
	solver := &services.Solver{Source: source}

	req := services.SolveRequest{
		Instance:  name,
		Algorithm: c.String("algorithm"),
		Strategy:  c.String("strategy"),
		Validate:  c.Bool("validate"),
	}
	if c.Bool("verbose") {
		req.OnAssign = func(ev services.AssignEvent) {
			log.Printf("assigned=%d/%d task=%d vehicle=%d pos=%d delta=%.0f",
				ev.Assigned, ev.Total, ev.TaskID, ev.VehicleID, ev.Position, ev.Delta)
		}
	}

	res, err := solver.Solve(ctx, req)
	if err != nil {
		return exitError(err)
	}
	printSolve(name, res)

	if out := c.String("out"); out != "" {
		if err := instancefile.SaveSolution(out, res.Solution); err != nil {
			return exitError(err)
		}
		fmt.Printf("solution written to %s\n", out)
	}
	if c.Bool("diagnostics") {
		dir := cfg.DiagnosticsDir
		if dir == "" {
			dir = filepath.Join(cfg.ResultsDir, "diagnostics")
		}
		path, err := instancefile.SaveMatrixDiagnostic(dir, res.Instance)
		if err != nil {
			return exitError(err)
		}
		fmt.Printf("matrix written to %s\n", path)
	}
	if len(res.Problems) > 0 {
		for _, p := range res.Problems {
			fmt.Printf("  invalid: %s\n", p)
		}
		return cli.NewExitError(fmt.Sprintf("solve: %d validation problems", len(res.Problems)), exitFailure)
	}
	return nil
}

func printSolve(name string, res services.SolveResult) {
	sum := res.Summary
	fmt.Printf("instance:    %s\n", name)
	if res.Strategy != "" {
		fmt.Printf("strategy:    %s\n", res.Strategy)
	}
	fmt.Printf("feasible:    %t\n", sum.Feasible)
	fmt.Printf("total cost:  %.0f\n", sum.TotalCost)
	fmt.Printf("vehicles:    %d\n", sum.VehiclesUsed)
	fmt.Printf("assigned:    %d\n", sum.AssignedCount)
	if len(res.Unassigned) > 0 {
		fmt.Printf("unassigned:  %v\n", res.Unassigned)
	}
	fmt.Printf("elapsed:     %s\n", res.Stats.Elapsed.Round(time.Microsecond))
}

func batchCmd(c *cli.Context) error {
	cfg, boundary, err := loadConfig(c)
	if err != nil {
		return exitError(err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	source := instancefile.NewFileInstanceSource(cfg.InstanceDir, boundary)
	solver := &services.Solver{Source: source, Runs: repositories.NewMemoryRunRepository()}

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return exitError(err)
		}
		defer conn.Close()
		if err := repositories.InitSchema(ctx, conn); err != nil {
			return exitError(err)
		}
		solver.Runs = repositories.NewSQLRunRepository(conn)
		solver.Cache = cache.NewSQLSolutionCache(conn)
	}
	if cfg.RedisURL != "" {
		solutions, err := cache.NewRedisSolutionCacheFromURL(ctx, cfg.RedisURL, 24*time.Hour)
		if err != nil {
			return exitError(err)
		}
		defer solutions.Close()
		solver.Cache = solutions
	}

	workers := cfg.Workers
	if w := c.Int("workers"); w > 0 {
		workers = w
	}
	resultsDir := cfg.ResultsDir
	if r := c.String("results"); r != "" {
		resultsDir = r
	}

	req := services.ExperimentRequest{
		Instances: c.Args(),
		Limit:     c.Int("limit"),
		Algorithm: c.String("algorithm"),
		Strategy:  c.String("strategy"),
		Workers:   workers,
		Validate:  c.Bool("validate"),
		OnRecord: func(r domain.RunRecord) {
			if r.Failed() {
				log.Printf("instance=%s error=%q", r.Instance, r.Error)
				return
			}
			log.Printf("instance=%s cost=%.0f vehicles=%d feasible=%t dur=%s",
				r.Instance, r.TotalCost, r.VehiclesUsed, r.Feasible, r.Elapsed.Round(time.Microsecond))
		},
	}

	res, err := services.RunExperiment(ctx, solver, req)
	if err != nil {
		return exitError(err)
	}

	meta := report.Meta{
		Algorithm: req.Algorithm,
		Strategy:  req.Strategy,
		Boundary:  boundary.String(),
		Host:      sysinfo.Collect(),
		Generated: time.Now(),
	}
	csvPath, textPath, err := report.Save(resultsDir, res.Records, meta, res.Summary)
	if err != nil {
		return exitError(err)
	}

	sum := res.Summary
	fmt.Printf("instances: %d  succeeded: %d  failed: %d  (%.1f%%)\n", sum.Total, sum.Succeeded, sum.Failed, sum.SuccessRate)
	fmt.Printf("total time: %.2fs\n", sum.TotalTime.Seconds())
	if sum.Succeeded > 0 {
		fmt.Printf("avg cost: %.0f  avg vehicles: %.1f  avg utilization: %.1f%%\n", sum.AvgCost, sum.AvgVehicles, sum.AvgUtilization)
	}
	if top := c.Int("top"); top > 0 {
		best, err := services.BestRuns(res.Records, services.ByCost, top)
		if err != nil {
			return exitError(err)
		}
		for i, r := range best {
			fmt.Printf("  %d. %-16s cost=%.0f vehicles=%d\n", i+1, r.Instance, r.TotalCost, r.VehiclesUsed)
		}
	}
	fmt.Printf("reports: %s, %s\n", csvPath, textPath)
	return nil
}
