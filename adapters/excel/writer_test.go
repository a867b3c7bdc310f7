package excel

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"windaep/domain/aep"
	"windaep/internal"
	"windaep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSamples_ReadBack(t *testing.T) {
	samples := aep.Samples{
		Power:      aep.PowerVector{1234.5, 0, 57600},
		Weights:    aep.WeightVector{2.2, 2.2, 2.2},
		Frequency:  aep.FrequencyVector{0.0125, 0.031, 0.0004},
		Directions: []float64{0, 0, 18},
		Speeds:     []float64{4.1, 6.3, 8.5},
	}

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "windrose"+ext)
			require.NoError(t, WriteSamples(path, samples))

			got, err := NewDataReader(path, internal.Discard()).ReadSamples()
			require.NoError(t, err)
			assert.InDeltaSlice(t, samples.Power, got.Power, 1e-9)
			assert.InDeltaSlice(t, samples.Weights, got.Weights, 1e-9)
			assert.InDeltaSlice(t, samples.Frequency, got.Frequency, 1e-12)
			assert.InDeltaSlice(t, samples.Directions, got.Directions, 1e-9)
			assert.InDeltaSlice(t, samples.Speeds, got.Speeds, 1e-9)
		})
	}
}

func TestWriteSamples_Rejects(t *testing.T) {
	dir := t.TempDir()

	err := WriteSamples(filepath.Join(dir, "bad.json"), aep.Samples{
		Power: aep.PowerVector{1}, Weights: aep.WeightVector{1}, Frequency: aep.FrequencyVector{1},
	})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	err = WriteSamples(filepath.Join(dir, "short.csv"), aep.Samples{
		Power: aep.PowerVector{1, 2}, Weights: aep.WeightVector{1}, Frequency: aep.FrequencyVector{1, 2},
	})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, stderrors.New("disk full")
}

func TestEncodeCSV_ReportsWriteFailure(t *testing.T) {
	headers, rows := sampleColumns(aep.Samples{
		Power: aep.PowerVector{1, 2}, Weights: aep.WeightVector{1, 1}, Frequency: aep.FrequencyVector{0.5, 0.5},
	})
	err := encodeCSV(failingWriter{}, headers, rows)
	assert.ErrorContains(t, err, "disk full")
}

func TestWriteSamples_FullDevice(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "full.csv")
	if err := os.Symlink("/dev/full", path); err != nil {
		t.Skipf("symlink: %v", err)
	}

	err := WriteSamples(path, aep.Samples{
		Power: aep.PowerVector{1}, Weights: aep.WeightVector{1}, Frequency: aep.FrequencyVector{1},
	})
	assert.Error(t, err)
}

func TestSampleColumns_KeepsFloatValues(t *testing.T) {
	headers, rows := sampleColumns(aep.Samples{
		Power:     aep.PowerVector{0.1 + 0.2},
		Weights:   aep.WeightVector{1.0 / 3},
		Frequency: aep.FrequencyVector{1e-300},
		Speeds:    []float64{7.25},
	})
	assert.Equal(t, []string{"power", "weights", "frequency", "speed"}, headers)
	assert.Equal(t, [][]float64{{0.1 + 0.2, 1.0 / 3, 1e-300, 7.25}}, rows)
}
