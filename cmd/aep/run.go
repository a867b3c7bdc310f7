package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"windaep/adapters/dakota"
	"windaep/adapters/excel"
	"windaep/adapters/quadrature"
	"windaep/adapters/remote"
	"windaep/app"
	"windaep/domain/aep"
	"windaep/internal"
	"windaep/internal/api"
	"windaep/internal/batch"
	"windaep/internal/config"
	"windaep/internal/testkit"
	"windaep/models"
	"windaep/ports"

	"github.com/joho/godotenv"
)

// environment is the configuration and logger shared by every command
type environment struct {
	cfg    *config.Config
	logger *internal.Logger
}

func loadEnvironment() (*environment, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))}, nil
}

// buildSolver returns the configured external solver, or nil when none is set.
// fallbackWeights backs a quadrature solver when no other solver is configured.
func (e *environment) buildSolver(fallbackWeights []float64) (ports.ExternalSolver, error) {
	switch e.cfg.Solver.Kind {
	case config.SolverFile:
		return dakota.NewFileSolver(dakota.Config{
			Command:    e.cfg.Solver.Command,
			WorkDir:    e.cfg.Solver.WorkDir,
			InputFile:  e.cfg.Solver.InputFile,
			ResultFile: e.cfg.Solver.ResultFile,
		}, e.logger)
	case config.SolverRemote:
		return remote.NewClient(remote.Config{BaseURL: e.cfg.Solver.URL, Timeout: e.cfg.Solver.Timeout})
	}
	if fallbackWeights != nil {
		return quadrature.NewSolver(fallbackWeights), nil
	}
	return nil, nil
}

func (e *environment) service(solver ports.ExternalSolver) *app.AEPService {
	return app.NewAEPService(app.ServiceConfig{
		DefaultMethod: app.Method(e.cfg.Estimator.Method),
		Samples:       e.cfg.Estimator.Samples,
		Check:         e.cfg.Check,
	}, solver, e.logger)
}

// loadTable reads a table and builds the service that evaluates it
func (e *environment) loadTable(path string, flags tableFlags) (*excel.TableSamples, *app.AEPService, error) {
	table, err := excel.NewDataReader(path, e.logger).WithSheet(flags.sheet).ReadSamples()
	if err != nil {
		return nil, nil, err
	}

	var fallback []float64
	if flags.quadrature {
		fallback = table.Weights
	}
	solver, err := e.buildSolver(fallback)
	if err != nil {
		return nil, nil, err
	}
	return table, e.service(solver), nil
}

func runEvaluate(ctx context.Context, out io.Writer, path string, flags tableFlags, withGradient bool, outPath string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	method, err := app.ParseMethod(flags.method)
	if err != nil {
		return err
	}
	table, svc, err := env.loadTable(path, flags)
	if err != nil {
		return err
	}

	eval, err := svc.Evaluate(ctx, app.EvaluationRequest{Samples: table.Samples, Method: method, WithGradient: withGradient})
	if err != nil {
		return err
	}

	if outPath != "" {
		record := models.NewEvaluationRecord(path, table.Samples, eval)
		if err := record.SaveJSON(outPath); err != nil {
			return err
		}
		env.logger.Info("record written to %s", outPath)
	}

	if flags.asJSON {
		return writeJSON(out, eval)
	}
	fmt.Fprintf(out, "Method: %s", eval.Method)
	if eval.Solver != "" {
		fmt.Fprintf(out, " (%s)", eval.Solver)
	}
	fmt.Fprintf(out, "\nSamples: %d\nAEP (kWh): %.6g\nAEP (GWh): %.6f\n", eval.Samples, eval.AEP, eval.AEPGWh)
	fmt.Fprintf(out, "Power (kW): mean %.4g, std %.4g, min %.4g, max %.4g\n",
		eval.Power.Mean, eval.Power.StdDev, eval.Power.Min, eval.Power.Max)
	if eval.Gradient != nil {
		printGradient(out, *eval.Gradient)
	}
	return nil
}

func runGradient(ctx context.Context, out io.Writer, path string, flags tableFlags) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	table, svc, err := env.loadTable(path, flags)
	if err != nil {
		return err
	}

	grad, err := svc.Gradient(ctx, table.Samples)
	if err != nil {
		return err
	}
	if flags.asJSON {
		return writeJSON(out, grad)
	}
	printGradient(out, grad)
	return nil
}

func runCheck(ctx context.Context, out io.Writer, path string, flags tableFlags, opts aep.FDOptions, tolerance float64) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	table, svc, err := env.loadTable(path, flags)
	if err != nil {
		return err
	}

	check, err := svc.CheckGradient(ctx, table.Samples, opts)
	if err != nil {
		return err
	}
	if flags.asJSON {
		if err := writeJSON(out, check); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Finite differences: %s, step %g (%s)\n", check.Options.Form, check.Options.StepSize, check.Options.StepType)
		for _, p := range check.Partials {
			fmt.Fprintf(out, "  d/d%-10s max abs error %.3e  max rel error %.3e\n", p.Input, p.MaxAbsError, p.MaxRelError)
		}
	}
	if !check.Passed(tolerance) {
		return fmt.Errorf("gradient check failed: relative error above %g", tolerance)
	}
	return nil
}

func runBatch(ctx context.Context, out io.Writer, paths []string, flags tableFlags, concurrency int, withGradient bool, outDir string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	method, err := app.ParseMethod(flags.method)
	if err != nil {
		return err
	}
	if flags.quadrature && env.cfg.Solver.Kind == config.SolverNone {
		return fmt.Errorf("--quadrature is per table and not supported by batch; configure SOLVER_COMMAND or SOLVER_URL")
	}
	solver, err := env.buildSolver(nil)
	if err != nil {
		return err
	}
	if concurrency < 1 {
		concurrency = env.cfg.Batch.Concurrency
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", outDir, err)
		}
	}

	tables := make([]*excel.TableSamples, len(paths))
	cases := make([]batch.Case, len(paths))
	for i, path := range paths {
		i, path := i, path
		cases[i] = batch.Case{
			Name: path,
			Load: func() (aep.Samples, error) {
				table, err := excel.NewDataReader(path, env.logger).WithSheet(flags.sheet).ReadSamples()
				if err != nil {
					return aep.Samples{}, err
				}
				tables[i] = table
				return table.Samples, nil
			},
		}
	}

	runner := batch.NewRunner(env.service(solver), concurrency, env.logger).
		WithMethod(method).
		WithGradient(withGradient)
	results, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}

	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		if outDir != "" {
			name := strings.TrimSuffix(filepath.Base(res.Name), filepath.Ext(res.Name)) + ".json"
			record := models.NewEvaluationRecord(res.Name, tables[i].Samples, res.Evaluation)
			if err := record.SaveJSON(filepath.Join(outDir, name)); err != nil {
				return err
			}
		}
	}

	if flags.asJSON {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(out, "%-40s FAILED %s\n", res.Name, res.Error)
				continue
			}
			fmt.Fprintf(out, "%-40s %.6f GWh\n", res.Name, res.Evaluation.AEPGWh)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(results))
	}
	return nil
}

func runGenerate(out io.Writer, path string, cfg testkit.WindRoseConfig, offsets int) error {
	if offsets < 1 {
		samples, err := testkit.NewWindRoseGenerator(cfg).Generate()
		if err != nil {
			return err
		}
		if err := excel.WriteSamples(path, samples); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d samples\n", path, samples.Len())
		return nil
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	bin := 360.0 / float64(cfg.Directions)
	start := cfg.DirectionOffset
	for i := 0; i < offsets; i++ {
		cfg.DirectionOffset = start + float64(i)*bin/float64(offsets)
		samples, err := testkit.NewWindRoseGenerator(cfg).Generate()
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%s_%d%s", base, i, ext)
		if err := excel.WriteSamples(name, samples); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d samples, offset %.3f deg\n", name, samples.Len(), cfg.DirectionOffset)
	}
	return nil
}

func runServe(ctx context.Context, port string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	solver, err := env.buildSolver(nil)
	if err != nil {
		return err
	}
	if port == "" {
		port = env.cfg.Server.Port
	}

	handler := api.NewHandler(env.service(solver), solver, env.logger)
	router := api.NewRouter(handler, env.cfg.Server.GinMode)
	return api.Serve(ctx, ":"+port, router, env.logger)
}

func printGradient(out io.Writer, g aep.Gradient) {
	fmt.Fprintln(out, "dAEP/dpower:")
	printVector(out, g.DPower)
	fmt.Fprintln(out, "dAEP/dweights:")
	printVector(out, g.DWeights)
	fmt.Fprintln(out, "dAEP/dfrequency:")
	printVector(out, g.DFrequency)
}

func printVector(out io.Writer, v []float64) {
	for i, x := range v {
		fmt.Fprintf(out, "  [%d] %.6g\n", i, x)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
