package ports

import (
	"context"

	"windaep/domain/core"
)

// IntegrationRequest is the payload handed to an external integration tool.
// Values are power[i]*frequency[i]; the tool supplies its own quadrature.
type IntegrationRequest struct {
	ID     core.RequestID `json:"id"`
	Header string         `json:"header"`
	Values []float64      `json:"values"`
}

// IntegrationResponse carries the tool's unscaled integrated value
type IntegrationResponse struct {
	ID    core.RequestID `json:"id"`
	Value float64        `json:"value"`
}

// ExternalSolver delegates the integration step to another process or service.
// Implementations block until a result is available and must report tool failures
// as core.ErrExternalTool.
type ExternalSolver interface {
	// Name identifies the solver in logs and error messages
	Name() string

	// Solve integrates the request values and returns the unscaled result
	Solve(ctx context.Context, req IntegrationRequest) (IntegrationResponse, error)
}
