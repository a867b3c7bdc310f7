package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"windaep/app"
	"windaep/domain/aep"
)

// EvaluationRecord is the JSON document written after an evaluation
type EvaluationRecord struct {
	ID            string           `json:"id"`
	Source        string           `json:"source,omitempty"`
	Method        string           `json:"method"`
	Solver        string           `json:"solver,omitempty"`
	Samples       int              `json:"samples"`
	AEP           float64          `json:"aep_kwh"`
	Mean          float64          `json:"mean"` // AEP in GWh
	WindDirection []float64        `json:"winddirections,omitempty"`
	WindSpeed     []float64        `json:"windspeeds,omitempty"`
	Power         []float64        `json:"power"`
	Weights       []float64        `json:"weights"`
	Frequency     []float64        `json:"frequency"`
	Contributions []float64        `json:"contributions_kwh"`
	PowerSummary  app.PowerSummary `json:"power_summary"`
	Gradient      *aep.Gradient    `json:"gradient,omitempty"`
	RuntimeMs     int64            `json:"runtime_ms"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewEvaluationRecord combines the inputs and result of one evaluation
func NewEvaluationRecord(source string, samples aep.Samples, eval *app.Evaluation) EvaluationRecord {
	return EvaluationRecord{
		ID:            eval.ID.String(),
		Source:        source,
		Method:        string(eval.Method),
		Solver:        eval.Solver,
		Samples:       eval.Samples,
		AEP:           eval.AEP,
		Mean:          eval.AEPGWh,
		WindDirection: samples.Directions,
		WindSpeed:     samples.Speeds,
		Power:         samples.Power,
		Weights:       samples.Weights,
		Frequency:     samples.Frequency,
		Contributions: eval.Contributions,
		PowerSummary:  eval.Power,
		Gradient:      eval.Gradient,
		RuntimeMs:     eval.RuntimeMs,
		CreatedAt:     time.Now().UTC(),
	}
}

// SaveJSON writes the record with two-space indentation
func (r EvaluationRecord) SaveJSON(path string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// LoadEvaluationRecord reads a record written by SaveJSON
func LoadEvaluationRecord(path string) (EvaluationRecord, error) {
	var r EvaluationRecord
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("unmarshal record: %w", err)
	}
	return r, nil
}
