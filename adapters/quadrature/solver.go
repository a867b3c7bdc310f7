package quadrature

import (
	"context"

	"windaep/domain/core"
	"windaep/ports"

	"gonum.org/v1/gonum/floats"
)

// Solver integrates in-process with a fixed set of quadrature weights
type Solver struct {
	weights []float64
}

var _ ports.ExternalSolver = (*Solver)(nil)

// NewSolver copies weights so later caller mutation does not leak in
func NewSolver(weights []float64) *Solver {
	return &Solver{weights: append([]float64(nil), weights...)}
}

// Name returns the solver name
func (s *Solver) Name() string {
	return "quadrature"
}

// Solve returns Σ weights[i]*values[i]
func (s *Solver) Solve(ctx context.Context, req ports.IntegrationRequest) (ports.IntegrationResponse, error) {
	if err := ctx.Err(); err != nil {
		return ports.IntegrationResponse{}, err
	}
	if len(req.Values) != len(s.weights) {
		return ports.IntegrationResponse{}, core.NewSizeError(len(s.weights), len(req.Values))
	}
	return ports.IntegrationResponse{ID: req.ID, Value: floats.Dot(s.weights, req.Values)}, nil
}
