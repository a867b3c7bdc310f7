package app

import (
	"context"
	"time"

	"windaep/domain/aep"
	"windaep/domain/core"
	"windaep/internal"
	"windaep/internal/errors"
	"windaep/ports"

	"github.com/montanaflynn/stats"
)

// Method selects the integration path
type Method string

const (
	MethodSimple   Method = "simple"
	MethodExternal Method = "external"
)

// ParseMethod maps a name to a Method, empty meaning the service default
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return "", nil
	case MethodSimple, MethodExternal:
		return Method(s), nil
	}
	return "", errors.InvalidInput("unknown method " + s + ", valid options simple or external")
}

// ServiceConfig configures an AEPService
type ServiceConfig struct {
	DefaultMethod Method
	Samples       int
	Check         aep.FDOptions
}

// AEPService evaluates AEP from sample tables and reports the result
type AEPService struct {
	simple        *aep.WeightedAEPEstimator
	external      *ExternalAEPEstimator
	defaultMethod Method
	check         aep.FDOptions
	logger        *internal.Logger
}

// EvaluationRequest defines the inputs for one evaluation
type EvaluationRequest struct {
	Samples      aep.Samples
	Method       Method // optional, service default when empty
	WithGradient bool
}

// PowerSummary describes the power vector of an evaluation
type PowerSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Evaluation is the record produced for one evaluation
type Evaluation struct {
	ID            core.EvaluationID `json:"id"`
	Method        Method            `json:"method"`
	Solver        string            `json:"solver,omitempty"`
	Samples       int               `json:"samples"`
	AEP           float64           `json:"aep_kwh"`
	AEPGWh        float64           `json:"aep_gwh"`
	Gradient      *aep.Gradient     `json:"gradient,omitempty"`
	Power         PowerSummary      `json:"power"`
	Contributions []float64         `json:"contributions_kwh"`
	Directions    []float64         `json:"directions,omitempty"`
	Speeds        []float64         `json:"speeds,omitempty"`
	RuntimeMs     int64             `json:"runtime_ms"`
}

// NewAEPService creates the service. solver may be nil, in which case only the
// simple method is available.
func NewAEPService(cfg ServiceConfig, solver ports.ExternalSolver, logger *internal.Logger) *AEPService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg.DefaultMethod == "" {
		cfg.DefaultMethod = MethodSimple
	}
	if cfg.Check.Form == "" {
		cfg.Check = aep.DefaultFDOptions()
	}

	svc := &AEPService{
		simple:        aep.NewWeightedAEPEstimator(cfg.Samples),
		defaultMethod: cfg.DefaultMethod,
		check:         cfg.Check,
		logger:        logger.With("aep"),
	}
	if solver != nil {
		svc.external = NewExternalAEPEstimator(solver, cfg.Samples, logger)
	}
	return svc
}

// DefaultMethod returns the method used when a request names none
func (s *AEPService) DefaultMethod() Method {
	return s.defaultMethod
}

// Evaluate computes AEP, and the analytic gradient when requested
func (s *AEPService) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	start := time.Now()

	method := req.Method
	if method == "" {
		method = s.defaultMethod
	}

	samples := req.Samples
	if err := samples.Validate(); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		ID:         core.NewEvaluationID(),
		Method:     method,
		Samples:    len(samples.Power),
		Directions: samples.Directions,
		Speeds:     samples.Speeds,
	}

	var err error
	switch method {
	case MethodSimple:
		eval.AEP, err = s.simple.EvaluateSamples(samples)
	case MethodExternal:
		if s.external == nil {
			return nil, errors.ConfigInvalid("external method requested but no solver is configured")
		}
		eval.Solver = s.external.SolverName()
		eval.AEP, err = s.external.Evaluate(ctx, samples)
	default:
		return nil, errors.InvalidInput("unknown method " + string(method))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s evaluation failed", method)
	}
	eval.AEPGWh = eval.AEP / 1e6

	if req.WithGradient {
		// Both methods integrate the same weighted sum, so the analytic partials apply to either
		g, err := s.simple.GradientSamples(samples)
		if err != nil {
			return nil, errors.Wrap(err, "gradient failed")
		}
		eval.Gradient = &g
	}

	if eval.Contributions, err = aep.Contributions(samples); err != nil {
		return nil, errors.Wrap(err, "contributions failed")
	}
	if eval.Power, err = summarizePower(samples.Power); err != nil {
		return nil, errors.Wrap(err, "power summary failed")
	}
	if eval.Power.Min < 0 {
		s.logger.Warn("evaluation %s has negative power (min %.3f kW)", eval.ID, eval.Power.Min)
	}

	eval.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Info("evaluation %s: method=%s samples=%d aep=%.3f kWh", eval.ID, method, eval.Samples, eval.AEP)
	return eval, nil
}

// Gradient returns the analytic partials of AEP
func (s *AEPService) Gradient(ctx context.Context, samples aep.Samples) (aep.Gradient, error) {
	g, err := s.simple.GradientSamples(samples)
	if err != nil {
		return aep.Gradient{}, errors.Wrap(err, "gradient failed")
	}
	return g, nil
}

// CheckGradient verifies the analytic gradient by finite differences. Unset
// fields of opts take the service's configured options.
func (s *AEPService) CheckGradient(ctx context.Context, samples aep.Samples, opts aep.FDOptions) (aep.GradientCheck, error) {
	opts = opts.WithDefaults(s.check)
	check, err := aep.CheckGradient(s.simple, samples, opts)
	if err != nil {
		return aep.GradientCheck{}, errors.Wrap(err, "gradient check failed")
	}
	for _, p := range check.Partials {
		s.logger.Debug("d(AEP)/d(%s): max abs error %.3e, max rel error %.3e", p.Input, p.MaxAbsError, p.MaxRelError)
	}
	return check, nil
}

func summarizePower(power aep.PowerVector) (PowerSummary, error) {
	data := stats.Float64Data(power)

	var summary PowerSummary
	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if summary.StdDev, err = stats.StandardDeviation(data); err != nil {
		return summary, err
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}
	return summary, nil
}
