package aep

import (
	"windaep/domain/core"
)

// HoursPerYear converts mean power in kW to annual energy in kWh
const HoursPerYear = 8760.0

// PowerVector holds wind-farm power in kW, one entry per sampled wind condition
type PowerVector []float64

// WeightVector holds numerical-integration weights; entries may be signed
type WeightVector []float64

// FrequencyVector holds probability-density values at each sample point
type FrequencyVector []float64

// Samples is one evaluation's worth of inputs
type Samples struct {
	Power     PowerVector     `json:"power"`
	Weights   WeightVector    `json:"weights"`
	Frequency FrequencyVector `json:"frequency"`

	// Directions (deg, ccw from north) and Speeds (m/s) describe the sampled
	// conditions. They do not enter the integration.
	Directions []float64 `json:"directions,omitempty"`
	Speeds     []float64 `json:"speeds,omitempty"`
}

// Len returns the number of samples, or -1 when the vectors disagree
func (s Samples) Len() int {
	if err := s.Validate(); err != nil {
		return -1
	}
	return len(s.Power)
}

// Validate checks the equal-length, non-empty invariant
func (s Samples) Validate() error {
	return ValidateShape(len(s.Power), len(s.Weights), len(s.Frequency))
}

// ValidateShape checks that three vector lengths agree and are at least one
func ValidateShape(power, weights, frequency int) error {
	if power != weights || power != frequency {
		return core.NewShapeMismatchError(power, weights, frequency)
	}
	if power == 0 {
		return core.ErrEmptySamples
	}
	return nil
}

// Gradient holds dAEP/dx for each input vector
type Gradient struct {
	DPower     []float64 `json:"d_power"`
	DWeights   []float64 `json:"d_weights"`
	DFrequency []float64 `json:"d_frequency"`
}
