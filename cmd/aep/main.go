package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"windaep/domain/aep"
	"windaep/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aep",
		Short: "Annual energy production of a wind farm from sampled power",
		Long: `Estimate wind-farm annual energy production (kWh) from a table of
power, quadrature weight and probability density, one row per sampled
wind condition.

Configuration is read from the environment and an optional .env file:
- AEP_METHOD=simple|external (default: simple)
- SOLVER_COMMAND, SOLVER_WORKDIR, SOLVER_INPUT_FILE, SOLVER_RESULT_FILE
- SOLVER_URL, SOLVER_TIMEOUT
- FD_FORM, FD_STEP_SIZE, FD_STEP_TYPE
- PORT, GIN_MODE, BATCH_CONCURRENCY, LOG_LEVEL`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newGradientCmd(),
		newCheckCmd(),
		newBatchCmd(),
		newGenerateCmd(),
		newServeCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tableFlags are shared by the commands that evaluate tables
type tableFlags struct {
	method     string
	sheet      string
	quadrature bool
	asJSON     bool
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.method, "method", "", "Integration method: simple|external (default: AEP_METHOD)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read from .xlsx tables (default: first sheet)")
	cmd.Flags().BoolVar(&f.quadrature, "quadrature", false, "Use the table weights as the external solver when none is configured")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the result as JSON")
}

func newEvaluateCmd() *cobra.Command {
	var flags tableFlags
	var withGradient bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "evaluate [table]",
		Short: "Evaluate AEP for one sample table",
		Long: `Evaluate AEP = sum(power * weights * frequency) * 8760 for a .csv or .xlsx table.

With --method external the power*frequency column is handed to the configured
external solver and its result is scaled to annual energy.

Example: aep evaluate windrose.csv --gradient --out record_opt.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), args[0], flags, withGradient, outPath)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&withGradient, "gradient", false, "Also compute partial derivatives")
	cmd.Flags().StringVar(&outPath, "out", "", "Write a JSON evaluation record to this path")
	return cmd
}

func newGradientCmd() *cobra.Command {
	var flags tableFlags

	cmd := &cobra.Command{
		Use:   "gradient [table]",
		Short: "Print dAEP/dpower, dAEP/dweights and dAEP/dfrequency for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGradient(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	var flags tableFlags
	var form, stepType string
	var stepSize, tolerance float64

	cmd := &cobra.Command{
		Use:   "check [table]",
		Short: "Compare analytic partials with a finite-difference approximation",
		Long: `Approximate every partial derivative by finite differences and report the
largest absolute and relative errors against the analytic partials.

Defaults come from FD_FORM, FD_STEP_SIZE and FD_STEP_TYPE (central, 1e-5, relative).

Example: aep check windrose.csv --form forward --step-size 1e-6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := aep.FDOptions{Form: aep.Form(form), StepSize: stepSize, StepType: aep.StepType(stepType)}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), args[0], flags, opts, tolerance)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&form, "form", "", "Difference form: central|forward|backward")
	cmd.Flags().Float64Var(&stepSize, "step-size", 0, "Step size")
	cmd.Flags().StringVar(&stepType, "step-type", "", "Step type: relative|absolute")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-4, "Maximum relative error for the check to pass")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var flags tableFlags
	var concurrency int
	var withGradient bool
	var outDir string

	cmd := &cobra.Command{
		Use:   "batch [tables...]",
		Short: "Evaluate many independent tables concurrently",
		Long: `Evaluate each table as an independent case, e.g. one per starting
wind-direction offset. A failing case is reported without stopping the others.

Example: aep batch offsets/*.csv --concurrency 8 --out-dir records`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), cmd.OutOrStdout(), args, flags, concurrency, withGradient, outDir)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Cases evaluated at once (default: BATCH_CONCURRENCY)")
	cmd.Flags().BoolVar(&withGradient, "gradient", false, "Also compute partial derivatives")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write one JSON evaluation record per case to this directory")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultWindRoseConfig()
	var offsets int

	cmd := &cobra.Command{
		Use:   "generate [table]",
		Short: "Write a synthetic wind-rose sample table",
		Long: `Write a direction x speed sample table for a synthetic farm with a cubic
power curve and Weibull-distributed wind speed.

With --offsets N, N tables are written with the direction grid rotated by
equal fractions of one direction bin; the table name gets a _<i> suffix.

Example: aep generate windrose.xlsx --directions 36 --speeds 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), args[0], cfg, offsets)
		},
	}

	cmd.Flags().IntVar(&cfg.Directions, "directions", cfg.Directions, "Number of wind directions")
	cmd.Flags().IntVar(&cfg.Speeds, "speeds", cfg.Speeds, "Number of wind speeds per direction")
	cmd.Flags().Float64Var(&cfg.DirectionOffset, "offset", cfg.DirectionOffset, "Starting direction in degrees")
	cmd.Flags().Float64Var(&cfg.PrevailingDirection, "prevailing", cfg.PrevailingDirection, "Prevailing direction in degrees")
	cmd.Flags().Float64Var(&cfg.Spread, "spread", cfg.Spread, "Direction spread in degrees, 0 for a uniform rose")
	cmd.Flags().Float64Var(&cfg.WeibullShape, "weibull-k", cfg.WeibullShape, "Weibull shape")
	cmd.Flags().Float64Var(&cfg.WeibullScale, "weibull-scale", cfg.WeibullScale, "Weibull scale in m/s")
	cmd.Flags().IntVar(&cfg.Turbines, "turbines", cfg.Turbines, "Number of turbines")
	cmd.Flags().IntVar(&offsets, "offsets", 0, "Write this many rotated tables instead of one")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the AEP HTTP API",
		Long: `Serve POST /v1/aep/evaluate, /v1/aep/gradient, /v1/aep/check and
/v1/integrate plus GET /healthz.

Example: PORT=9090 aep serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default: PORT)")
	return cmd
}
