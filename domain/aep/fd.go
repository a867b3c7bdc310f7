package aep

import (
	"math"

	"windaep/domain/core"

	"gonum.org/v1/gonum/diff/fd"
)

// Form selects the finite-difference stencil
type Form string

const (
	FormCentral  Form = "central"
	FormForward  Form = "forward"
	FormBackward Form = "backward"
)

// StepType selects whether StepSize is scaled by the variable's magnitude
type StepType string

const (
	StepRelative StepType = "relative"
	StepAbsolute StepType = "absolute"
)

// FDOptions configures a finite-difference derivative check. Options are passed
// per call and never stored on the estimator.
type FDOptions struct {
	Form     Form     `json:"form"`
	StepSize float64  `json:"step_size"`
	StepType StepType `json:"step_type"`
}

// DefaultFDOptions returns central differences with a relative 1e-5 step
func DefaultFDOptions() FDOptions {
	return FDOptions{
		Form:     FormCentral,
		StepSize: 1.0e-5,
		StepType: StepRelative,
	}
}

// WithDefaults fills unset fields from defaults
func (o FDOptions) WithDefaults(defaults FDOptions) FDOptions {
	if o.Form == "" {
		o.Form = defaults.Form
	}
	if o.StepSize == 0 {
		o.StepSize = defaults.StepSize
	}
	if o.StepType == "" {
		o.StepType = defaults.StepType
	}
	return o
}

// Validate rejects unknown forms, step types and non-positive steps
func (o FDOptions) Validate() error {
	switch o.Form {
	case FormCentral, FormForward, FormBackward:
	default:
		return core.NewInvalidOptionError("form", o.Form)
	}
	switch o.StepType {
	case StepRelative, StepAbsolute:
	default:
		return core.NewInvalidOptionError("step_type", o.StepType)
	}
	if !(o.StepSize > 0) || math.IsInf(o.StepSize, 0) {
		return core.NewInvalidOptionError("step_size", o.StepSize)
	}
	return nil
}

func (o FDOptions) formula() fd.Formula {
	switch o.Form {
	case FormForward:
		return fd.Forward
	case FormBackward:
		return fd.Backward
	default:
		return fd.Central
	}
}

// step returns the perturbation used at x
func (o FDOptions) step(x float64) float64 {
	if o.StepType == StepRelative && x != 0 {
		return o.StepSize * math.Abs(x)
	}
	return o.StepSize
}

// PartialCheck compares one input's analytic and finite-difference partials
type PartialCheck struct {
	Input       string    `json:"input"`
	Analytic    []float64 `json:"analytic"`
	Approximate []float64 `json:"approximate"`
	MaxAbsError float64   `json:"max_abs_error"`
	MaxRelError float64   `json:"max_rel_error"`
}

// GradientCheck is the result of CheckGradient
type GradientCheck struct {
	Options  FDOptions      `json:"options"`
	Partials []PartialCheck `json:"partials"`
}

// Passed reports whether every partial is within tol relative error
func (c GradientCheck) Passed(tol float64) bool {
	for _, p := range c.Partials {
		if p.MaxRelError > tol {
			return false
		}
	}
	return true
}

// CheckGradient differentiates Evaluate numerically with respect to every entry of
// every input and compares against Gradient.
func CheckGradient(e *WeightedAEPEstimator, s Samples, opts FDOptions) (GradientCheck, error) {
	if err := opts.Validate(); err != nil {
		return GradientCheck{}, err
	}
	analytic, err := e.GradientSamples(s)
	if err != nil {
		return GradientCheck{}, err
	}

	power := append([]float64(nil), s.Power...)
	weights := append([]float64(nil), s.Weights...)
	frequency := append([]float64(nil), s.Frequency...)

	inputs := []struct {
		name     string
		vec      []float64
		analytic []float64
	}{
		{"power", power, analytic.DPower},
		{"weights", weights, analytic.DWeights},
		{"frequency", frequency, analytic.DFrequency},
	}

	check := GradientCheck{Options: opts}
	for _, in := range inputs {
		pc := PartialCheck{
			Input:       in.name,
			Analytic:    in.analytic,
			Approximate: make([]float64, len(in.vec)),
		}
		for i := range in.vec {
			x0 := in.vec[i]
			vec, idx := in.vec, i
			f := func(x float64) float64 {
				vec[idx] = x
				// Shape was validated above, Evaluate cannot fail here
				v, _ := e.Evaluate(power, weights, frequency)
				return v
			}
			pc.Approximate[i] = fd.Derivative(f, x0, &fd.Settings{
				Formula: opts.formula(),
				Step:    opts.step(x0),
			})
			in.vec[i] = x0

			absErr := math.Abs(pc.Approximate[i] - in.analytic[i])
			relErr := absErr
			if in.analytic[i] != 0 {
				relErr = absErr / math.Abs(in.analytic[i])
			}
			pc.MaxAbsError = math.Max(pc.MaxAbsError, absErr)
			pc.MaxRelError = math.Max(pc.MaxRelError, relErr)
		}
		check.Partials = append(check.Partials, pc)
	}
	return check, nil
}
