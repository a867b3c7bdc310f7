package app

import (
	"context"
	"fmt"
	"testing"

	"windaep/adapters/quadrature"
	"windaep/domain/aep"
	"windaep/domain/core"
	"windaep/internal"
	"windaep/internal/errors"
	"windaep/internal/testkit"
	"windaep/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSolver is a testify mock of ports.ExternalSolver
type MockSolver struct {
	mock.Mock
}

func (m *MockSolver) Name() string {
	return "mock"
}

func (m *MockSolver) Solve(ctx context.Context, req ports.IntegrationRequest) (ports.IntegrationResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.IntegrationResponse), args.Error(1)
}

func scenario() aep.Samples {
	return testkit.ScenarioSamples()
}

func TestAEPService_EvaluateSimple(t *testing.T) {
	svc := NewAEPService(ServiceConfig{}, nil, internal.Discard())

	eval, err := svc.Evaluate(context.Background(), EvaluationRequest{Samples: scenario(), WithGradient: true})
	require.NoError(t, err)

	assert.Equal(t, MethodSimple, eval.Method)
	assert.Equal(t, 2, eval.Samples)
	assert.InDelta(t, 613200.0, eval.AEP, 1e-6)
	assert.InDelta(t, 0.6132, eval.AEPGWh, 1e-12)
	require.NotNil(t, eval.Gradient)
	assert.InDeltaSlice(t, []float64{2628.0, 1752.0}, eval.Gradient.DPower, 1e-9)
	assert.InDeltaSlice(t, []float64{262800, 350400}, eval.Contributions, 1e-6)
	assert.Equal(t, 150.0, eval.Power.Mean)
	assert.Equal(t, 100.0, eval.Power.Min)
	assert.Equal(t, 200.0, eval.Power.Max)
	assert.Equal(t, 50.0, eval.Power.StdDev)
	assert.Equal(t, []float64{0, 180}, eval.Directions)
	assert.False(t, eval.ID == "")
}

func TestAEPService_EvaluateExternalWithMock(t *testing.T) {
	solver := new(MockSolver)
	solver.On("Solve", mock.Anything, mock.MatchedBy(func(req ports.IntegrationRequest) bool {
		return req.Header == "power" && len(req.Values) == 2 && req.Values[0] == 60 && req.Values[1] == 80
	})).Return(ports.IntegrationResponse{Value: 70}, nil).Once()

	svc := NewAEPService(ServiceConfig{DefaultMethod: MethodExternal}, solver, internal.Discard())

	eval, err := svc.Evaluate(context.Background(), EvaluationRequest{Samples: scenario()})
	require.NoError(t, err)
	assert.Equal(t, MethodExternal, eval.Method)
	assert.Equal(t, "mock", eval.Solver)
	assert.InDelta(t, 70*aep.HoursPerYear, eval.AEP, 1e-6)
	assert.Nil(t, eval.Gradient)
	solver.AssertExpectations(t)
}

func TestAEPService_ExternalFailureIsExternalToolError(t *testing.T) {
	solver := new(MockSolver)
	solver.On("Solve", mock.Anything, mock.Anything).
		Return(ports.IntegrationResponse{}, fmt.Errorf("connection reset")).Once()

	svc := NewAEPService(ServiceConfig{}, solver, internal.Discard())

	_, err := svc.Evaluate(context.Background(), EvaluationRequest{Samples: scenario(), Method: MethodExternal})
	require.Error(t, err)
	assert.True(t, core.IsExternalToolError(err), "got %v", err)
	assert.Equal(t, errors.CodeExternalTool, errors.GetCode(err))
	solver.AssertExpectations(t)
}

func TestAEPService_ExternalMatchesSimpleWithQuadrature(t *testing.T) {
	s := aep.Samples{
		Power:     aep.PowerVector{1500, 2300, 900, 3100, 50},
		Weights:   aep.WeightVector{0.1, 0.3, -0.05, 0.4, 0.25},
		Frequency: aep.FrequencyVector{0.002, 0.003, 0.001, 0.0025, 0.004},
	}
	svc := NewAEPService(ServiceConfig{Samples: 5}, quadrature.NewSolver(s.Weights), internal.Discard())

	simple, err := svc.Evaluate(context.Background(), EvaluationRequest{Samples: s, Method: MethodSimple})
	require.NoError(t, err)
	external, err := svc.Evaluate(context.Background(), EvaluationRequest{Samples: s, Method: MethodExternal})
	require.NoError(t, err)

	assert.InEpsilon(t, simple.AEP, external.AEP, 1e-12)
	assert.Equal(t, "quadrature", external.Solver)
}

func TestAEPService_Errors(t *testing.T) {
	svc := NewAEPService(ServiceConfig{}, nil, internal.Discard())

	tests := []struct {
		name string
		req  EvaluationRequest
		code string
	}{
		{
			name: "shape mismatch",
			req: EvaluationRequest{Samples: aep.Samples{
				Power: aep.PowerVector{1, 2, 3}, Weights: aep.WeightVector{1, 2}, Frequency: aep.FrequencyVector{1, 2, 3},
			}},
			code: errors.CodeShapeMismatch,
		},
		{
			name: "external without solver",
			req:  EvaluationRequest{Samples: scenario(), Method: MethodExternal},
			code: errors.CodeConfigInvalid,
		},
		{
			name: "unknown method",
			req:  EvaluationRequest{Samples: scenario(), Method: "chaospy"},
			code: errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Evaluate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestAEPService_CheckGradient(t *testing.T) {
	svc := NewAEPService(ServiceConfig{}, nil, internal.Discard())

	check, err := svc.CheckGradient(context.Background(), scenario(), aep.FDOptions{})
	require.NoError(t, err)
	assert.Equal(t, aep.DefaultFDOptions(), check.Options)
	assert.True(t, check.Passed(1e-6))

	_, err = svc.CheckGradient(context.Background(), scenario(), aep.FDOptions{Form: "spline", StepSize: 1, StepType: aep.StepAbsolute})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAEPService_CheckGradientPartialOptions(t *testing.T) {
	configured := aep.FDOptions{Form: aep.FormCentral, StepSize: 1e-4, StepType: aep.StepAbsolute}
	svc := NewAEPService(ServiceConfig{Check: configured}, nil, internal.Discard())

	check, err := svc.CheckGradient(context.Background(), scenario(), aep.FDOptions{Form: aep.FormForward})
	require.NoError(t, err)
	assert.Equal(t, aep.FDOptions{Form: aep.FormForward, StepSize: 1e-4, StepType: aep.StepAbsolute}, check.Options)
	assert.True(t, check.Passed(1e-6))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("external")
	require.NoError(t, err)
	assert.Equal(t, MethodExternal, m)

	m, err = ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, Method(""), m)

	_, err = ParseMethod("rect")
	assert.Error(t, err)
}
