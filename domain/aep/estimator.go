package aep

import (
	"windaep/domain/core"

	"gonum.org/v1/gonum/floats"
)

// WeightedAEPEstimator integrates weighted power samples into annual energy.
// A size of zero accepts any N; otherwise inputs must have exactly that many samples.
type WeightedAEPEstimator struct {
	size int
}

// NewWeightedAEPEstimator creates an estimator for nSamples wind conditions
func NewWeightedAEPEstimator(nSamples int) *WeightedAEPEstimator {
	if nSamples < 0 {
		nSamples = 0
	}
	return &WeightedAEPEstimator{size: nSamples}
}

// Size returns the fixed number of samples, zero when unconstrained
func (e *WeightedAEPEstimator) Size() int {
	return e.size
}

func (e *WeightedAEPEstimator) check(power, weights, frequency []float64) error {
	if err := ValidateShape(len(power), len(weights), len(frequency)); err != nil {
		return err
	}
	if e.size > 0 && len(power) != e.size {
		return core.NewSizeError(e.size, len(power))
	}
	return nil
}

// Evaluate returns HoursPerYear * Σ power[i]*weights[i]*frequency[i] in kWh
func (e *WeightedAEPEstimator) Evaluate(power, weights, frequency []float64) (float64, error) {
	if err := e.check(power, weights, frequency); err != nil {
		return 0, err
	}
	wf := floats.MulTo(make([]float64, len(weights)), weights, frequency)
	return HoursPerYear * floats.Dot(power, wf), nil
}

// Gradient returns the exact partials of Evaluate with respect to each input
func (e *WeightedAEPEstimator) Gradient(power, weights, frequency []float64) (Gradient, error) {
	if err := e.check(power, weights, frequency); err != nil {
		return Gradient{}, err
	}
	n := len(power)
	g := Gradient{
		DPower:     floats.MulTo(make([]float64, n), weights, frequency),
		DWeights:   floats.MulTo(make([]float64, n), power, frequency),
		DFrequency: floats.MulTo(make([]float64, n), power, weights),
	}
	floats.Scale(HoursPerYear, g.DPower)
	floats.Scale(HoursPerYear, g.DWeights)
	floats.Scale(HoursPerYear, g.DFrequency)
	return g, nil
}

// EvaluateSamples is Evaluate over a Samples value
func (e *WeightedAEPEstimator) EvaluateSamples(s Samples) (float64, error) {
	return e.Evaluate(s.Power, s.Weights, s.Frequency)
}

// GradientSamples is Gradient over a Samples value
func (e *WeightedAEPEstimator) GradientSamples(s Samples) (Gradient, error) {
	return e.Gradient(s.Power, s.Weights, s.Frequency)
}

// Contributions returns the energy each sample adds to the total, in kWh
func Contributions(s Samples) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := floats.MulTo(make([]float64, len(s.Power)), s.Power, s.Weights)
	floats.Mul(out, s.Frequency)
	floats.Scale(HoursPerYear, out)
	return out, nil
}

// Evaluate integrates samples of any length without a size constraint
func Evaluate(power, weights, frequency []float64) (float64, error) {
	return NewWeightedAEPEstimator(0).Evaluate(power, weights, frequency)
}

// EvaluateGradient differentiates samples of any length without a size constraint
func EvaluateGradient(power, weights, frequency []float64) (Gradient, error) {
	return NewWeightedAEPEstimator(0).Gradient(power, weights, frequency)
}
