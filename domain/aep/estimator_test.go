package aep

import (
	"math/rand"
	"testing"

	"windaep/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_TwoDirectionScenario(t *testing.T) {
	e := NewWeightedAEPEstimator(2)

	aep, err := e.Evaluate([]float64{100, 200}, []float64{0.5, 0.5}, []float64{0.6, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 613200.0, aep, 1e-6)
}

func TestGradient_TwoDirectionScenario(t *testing.T) {
	e := NewWeightedAEPEstimator(2)

	g, err := e.Gradient([]float64{100, 200}, []float64{0.5, 0.5}, []float64{0.6, 0.4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2628.0, 1752.0}, g.DPower, 1e-9)
	assert.InDeltaSlice(t, []float64{8760 * 100 * 0.6, 8760 * 200 * 0.4}, g.DWeights, 1e-9)
	assert.InDeltaSlice(t, []float64{8760 * 100 * 0.5, 8760 * 200 * 0.5}, g.DFrequency, 1e-9)
}

func TestEvaluate_ZeroPower(t *testing.T) {
	aep, err := Evaluate([]float64{0, 0, 0}, []float64{0.2, -0.1, 0.9}, []float64{0.3, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, aep)
}

func TestEvaluate_MatchesDirectSum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		p, w, f := randomVectors(rng, n)

		want := 0.0
		for i := 0; i < n; i++ {
			want += p[i] * w[i] * f[i]
		}
		want *= HoursPerYear

		got, err := Evaluate(p, w, f)
		require.NoError(t, err)
		assert.InEpsilon(t, want, got, 1e-12, "trial %d, n=%d", trial, n)
	}
}

func TestGradient_FirstOrderPerturbation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 20
	p, w, f := randomVectors(rng, n)

	g, err := EvaluateGradient(p, w, f)
	require.NoError(t, err)
	base, err := Evaluate(p, w, f)
	require.NoError(t, err)

	perturb := func(v []float64, eps float64) ([]float64, []float64) {
		delta := make([]float64, len(v))
		out := make([]float64, len(v))
		for i := range v {
			delta[i] = eps * (rng.Float64() - 0.5)
			out[i] = v[i] + delta[i]
		}
		return out, delta
	}
	dot := func(a, b []float64) float64 {
		s := 0.0
		for i := range a {
			s += a[i] * b[i]
		}
		return s
	}

	const eps = 1e-4
	tests := []struct {
		name string
		eval func() (float64, []float64)
		grad []float64
	}{
		{"power", func() (float64, []float64) {
			pp, d := perturb(p, eps)
			v, _ := Evaluate(pp, w, f)
			return v, d
		}, g.DPower},
		{"weights", func() (float64, []float64) {
			ww, d := perturb(w, eps)
			v, _ := Evaluate(p, ww, f)
			return v, d
		}, g.DWeights},
		{"frequency", func() (float64, []float64) {
			ff, d := perturb(f, eps)
			v, _ := Evaluate(p, w, ff)
			return v, d
		}, g.DFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perturbed, delta := tt.eval()
			// Evaluate is linear in each input, so the first-order model is exact up to rounding
			assert.InDelta(t, perturbed-base, dot(tt.grad, delta), 1e-6)
		})
	}
}

func TestEvaluate_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		power     []float64
		weights   []float64
		frequency []float64
	}{
		{"weights shorter", 0, []float64{1, 2, 3}, []float64{1, 2}, []float64{1, 2, 3}},
		{"frequency longer", 0, []float64{1}, []float64{1}, []float64{1, 2}},
		{"empty", 0, nil, nil, nil},
		{"wrong fixed size", 4, []float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewWeightedAEPEstimator(tt.size)

			_, err := e.Evaluate(tt.power, tt.weights, tt.frequency)
			assert.ErrorIs(t, err, core.ErrShapeMismatch)

			_, err = e.Gradient(tt.power, tt.weights, tt.frequency)
			assert.ErrorIs(t, err, core.ErrShapeMismatch)
		})
	}
}

func TestContributions_SumToAEP(t *testing.T) {
	s := Samples{
		Power:     PowerVector{100, 200},
		Weights:   WeightVector{0.5, 0.5},
		Frequency: FrequencyVector{0.6, 0.4},
	}

	parts, err := Contributions(s)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{262800, 350400}, parts, 1e-6)

	aep, err := NewWeightedAEPEstimator(0).EvaluateSamples(s)
	require.NoError(t, err)
	assert.InDelta(t, aep, parts[0]+parts[1], 1e-6)
}

func TestSamplesLen(t *testing.T) {
	s := Samples{Power: PowerVector{1, 2}, Weights: WeightVector{1, 2}, Frequency: FrequencyVector{1}}
	assert.Equal(t, -1, s.Len())

	s.Frequency = append(s.Frequency, 2)
	assert.Equal(t, 2, s.Len())
}

func randomVectors(rng *rand.Rand, n int) ([]float64, []float64, []float64) {
	p := make([]float64, n)
	w := make([]float64, n)
	f := make([]float64, n)
	for i := 0; i < n; i++ {
		p[i] = 5000 * rng.Float64()
		w[i] = rng.Float64() - 0.2 // quadrature weights may be signed
		f[i] = rng.Float64() / 360
	}
	return p, w, f
}
