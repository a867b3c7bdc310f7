package excel

import (
	"fmt"
	"strconv"
	"strings"

	"windaep/domain/aep"
	"windaep/internal/errors"
)

// TableSamples are samples read from a table along with the column each came from
type TableSamples struct {
	aep.Samples
	Columns map[string]string
}

// ToSamples maps table columns onto power, weights, frequency and the optional
// direction and speed columns. Header matching ignores case and underscores.
func ToSamples(data *TableData) (*TableSamples, error) {
	power, err := requireColumn(data, "power", powerColumns)
	if err != nil {
		return nil, err
	}
	weights, err := requireColumn(data, "weights", weightColumns)
	if err != nil {
		return nil, err
	}
	frequency, err := requireColumn(data, "frequency", frequencyColumns)
	if err != nil {
		return nil, err
	}

	out := &TableSamples{Columns: map[string]string{
		"power":     power,
		"weights":   weights,
		"frequency": frequency,
	}}

	if out.Power, err = parseColumn(data, power); err != nil {
		return nil, err
	}
	if out.Weights, err = parseColumn(data, weights); err != nil {
		return nil, err
	}
	if out.Frequency, err = parseColumn(data, frequency); err != nil {
		return nil, err
	}

	if col := findColumn(data, directionColumns); col != "" {
		out.Columns["direction"] = col
		if out.Directions, err = parseColumn(data, col); err != nil {
			return nil, err
		}
	}
	if col := findColumn(data, speedColumns); col != "" {
		out.Columns["speed"] = col
		if out.Speeds, err = parseColumn(data, col); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), "_", "")
}

func findColumn(data *TableData, aliases []string) string {
	for _, alias := range aliases {
		for _, header := range data.Headers {
			if normalizeHeader(header) == alias {
				return header
			}
		}
	}
	return ""
}

func requireColumn(data *TableData, name string, aliases []string) (string, error) {
	if col := findColumn(data, aliases); col != "" {
		return col, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("missing %s column (accepted headers: %s)", name, strings.Join(aliases, ", ")))
}

func parseColumn(data *TableData, column string) ([]float64, error) {
	values := make([]float64, len(data.Rows))
	for i, row := range data.Rows {
		cell := row[column]
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("data row %d, column %s: %q is not a number", i+1, column, cell))
		}
		values[i] = v
	}
	return values, nil
}
