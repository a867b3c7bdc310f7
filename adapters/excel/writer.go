package excel

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"windaep/domain/aep"
	"windaep/internal/errors"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteSamples
const SheetName = "samples"

// WriteSamples writes samples as a table that DataReader reads back. The format
// follows the extension: .csv or .xlsx.
func WriteSamples(path string, s aep.Samples) error {
	if err := s.Validate(); err != nil {
		return err
	}
	headers, rows := sampleColumns(s)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSVRows(path, headers, rows)
	case ".xlsx":
		return writeExcelRows(path, headers, rows)
	default:
		return errors.InvalidInput("unsupported table extension: " + filepath.Ext(path))
	}
}

func sampleColumns(s aep.Samples) ([]string, [][]float64) {
	headers := []string{"power", "weights", "frequency"}
	withDir := len(s.Directions) == len(s.Power)
	withSpeed := len(s.Speeds) == len(s.Power)
	if withDir {
		headers = append(headers, "direction")
	}
	if withSpeed {
		headers = append(headers, "speed")
	}

	rows := make([][]float64, 0, len(s.Power))
	for i := range s.Power {
		row := []float64{s.Power[i], s.Weights[i], s.Frequency[i]}
		if withDir {
			row = append(row, s.Directions[i])
		}
		if withSpeed {
			row = append(row, s.Speeds[i])
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func writeCSVRows(path string, headers []string, rows [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}

	if err := encodeCSV(file, headers, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "failed to close CSV file")
	}
	return nil
}

func encodeCSV(out io.Writer, headers []string, rows [][]float64) error {
	w := csv.NewWriter(out)
	if err := w.Write(headers); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "failed to write CSV row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to write CSV file")
	}
	return nil
}

func writeExcelRows(path string, headers []string, rows [][]float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return errors.Wrap(err, "failed to name worksheet")
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address cell")
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.Wrap(err, "failed to write row")
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save Excel file")
	}
	return nil
}
