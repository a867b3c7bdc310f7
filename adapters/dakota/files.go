package dakota

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"windaep/domain/core"
)

// WriteInputFile writes a headered single-column numeric file. The content is
// staged in a temporary file and renamed into place, so the tool never observes
// a partially written input.
func WriteInputFile(path, header string, values []float64) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if header != "" {
		for _, line := range strings.Split(header, "\n") {
			if _, err := fmt.Fprintf(w, "# %s\n", line); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
		}
	}
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "%.18e\n", v); err != nil {
			return fmt.Errorf("write value: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return nil
}

// ReadInputFile parses a file written by WriteInputFile, skipping comments
func ReadInputFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var values []float64
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	return values, scanner.Err()
}

// ReadResultFile reads the single scalar the external tool writes
func ReadResultFile(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("%w: %s", core.ErrResultMissing, path)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", core.ErrResultMissing, path, err)
	}

	var tokens []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	if len(tokens) != 1 {
		return 0, fmt.Errorf("%w: %s: expected one value, found %d", core.ErrResultInvalid, path, len(tokens))
	}

	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", core.ErrResultInvalid, path, tokens[0])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s: non-finite value %v", core.ErrResultInvalid, path, v)
	}
	return v, nil
}
