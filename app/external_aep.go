package app

import (
	"context"

	"windaep/domain/aep"
	"windaep/domain/core"
	"windaep/internal"
	"windaep/ports"

	"gonum.org/v1/gonum/floats"
)

// ExternalAEPEstimator delegates the integration of power*frequency to an
// ExternalSolver and scales the result to kWh. It has no gradient of its own.
type ExternalAEPEstimator struct {
	solver ports.ExternalSolver
	size   int
	logger *internal.Logger
}

// NewExternalAEPEstimator creates an estimator for nSamples wind conditions; zero
// accepts any N
func NewExternalAEPEstimator(solver ports.ExternalSolver, nSamples int, logger *internal.Logger) *ExternalAEPEstimator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ExternalAEPEstimator{solver: solver, size: nSamples, logger: logger.With("external-aep")}
}

// SolverName reports which solver backs the estimator
func (e *ExternalAEPEstimator) SolverName() string {
	return e.solver.Name()
}

// Evaluate returns HoursPerYear times the solver's integral of power*frequency
func (e *ExternalAEPEstimator) Evaluate(ctx context.Context, s aep.Samples) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if e.size > 0 && len(s.Power) != e.size {
		return 0, core.NewSizeError(e.size, len(s.Power))
	}

	req := ports.IntegrationRequest{
		ID:     core.NewRequestID(),
		Header: "power",
		Values: floats.MulTo(make([]float64, len(s.Power)), s.Power, s.Frequency),
	}

	resp, err := e.solver.Solve(ctx, req)
	if err != nil {
		e.logger.Debug("solver %s failed for request %s: %v", e.solver.Name(), req.ID, err)
		if core.IsExternalToolError(err) || core.IsShapeMismatch(err) {
			return 0, err
		}
		return 0, core.NewExternalToolError(e.solver.Name(), err)
	}

	return resp.Value * aep.HoursPerYear, nil
}
