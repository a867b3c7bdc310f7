package dakota

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"windaep/domain/core"
	"windaep/internal"
	"windaep/ports"
)

const (
	DefaultInputFile  = "powerInput.txt"
	DefaultResultFile = "AEP.txt"
)

// Config describes how to invoke the external uncertainty-quantification tool
type Config struct {
	// Command is the argv to run, e.g. ["python", "getDakotaAEP.py", "dakotaAEP.in"]
	Command []string `json:"command"`
	// WorkDir is where the tool runs and where relative file names resolve
	WorkDir    string `json:"work_dir"`
	InputFile  string `json:"input_file"`
	ResultFile string `json:"result_file"`
}

// DefaultConfig returns the file names the tool's input deck expects
func DefaultConfig() Config {
	return Config{
		InputFile:  DefaultInputFile,
		ResultFile: DefaultResultFile,
	}
}

// FileSolver implements ports.ExternalSolver with a file handoff to a subprocess.
// Calls are serialised because the handoff file names are fixed.
type FileSolver struct {
	cfg    Config
	logger *internal.Logger
	mu     sync.Mutex
}

var _ ports.ExternalSolver = (*FileSolver)(nil)

// NewFileSolver validates cfg and returns a solver
func NewFileSolver(cfg Config, logger *internal.Logger) (*FileSolver, error) {
	if len(cfg.Command) == 0 || strings.TrimSpace(cfg.Command[0]) == "" {
		return nil, core.NewInvalidOptionError("command", cfg.Command)
	}
	if cfg.InputFile == "" {
		cfg.InputFile = DefaultInputFile
	}
	if cfg.ResultFile == "" {
		cfg.ResultFile = DefaultResultFile
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileSolver{cfg: cfg, logger: logger.With("dakota")}, nil
}

// Name returns the solver name
func (s *FileSolver) Name() string {
	return "dakota"
}

// InputPath returns the resolved path of the transient input file
func (s *FileSolver) InputPath() string {
	return s.resolve(s.cfg.InputFile)
}

// ResultPath returns the resolved path of the result file
func (s *FileSolver) ResultPath() string {
	return s.resolve(s.cfg.ResultFile)
}

func (s *FileSolver) resolve(name string) string {
	if filepath.IsAbs(name) || s.cfg.WorkDir == "" {
		return name
	}
	return filepath.Join(s.cfg.WorkDir, name)
}

// Solve writes the input file, runs the tool and reads back its scalar result.
// The input file is removed on every return path.
func (s *FileSolver) Solve(ctx context.Context, req ports.IntegrationRequest) (ports.IntegrationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputPath := s.InputPath()
	resultPath := s.ResultPath()

	// A result left by an earlier run must never be read as this run's answer
	if err := os.Remove(resultPath); err != nil && !os.IsNotExist(err) {
		return ports.IntegrationResponse{}, core.NewExternalToolError(s.Name(), fmt.Errorf("remove stale result: %w", err))
	}

	defer func() {
		if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove %s: %v", inputPath, err)
		}
	}()

	if err := WriteInputFile(inputPath, req.Header, req.Values); err != nil {
		return ports.IntegrationResponse{}, core.NewExternalToolError(s.Name(), fmt.Errorf("write input: %w", err))
	}
	s.logger.Debug("wrote %d values to %s for request %s", len(req.Values), inputPath, req.ID)

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.cfg.Command[0], s.cfg.Command[1:]...)
	cmd.Dir = s.cfg.WorkDir
	cmd.Env = append(os.Environ(),
		"AEP_INPUT_FILE="+absOrSame(inputPath),
		"AEP_RESULT_FILE="+absOrSame(resultPath),
		"AEP_REQUEST_ID="+req.ID.String(),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.logger.Error("%s exited with status %d after %s", s.cfg.Command[0], exitErr.ExitCode(), time.Since(start))
			return ports.IntegrationResponse{}, core.NewExternalToolError(s.Name(),
				fmt.Errorf("%w: status %d: %s", core.ErrToolExit, exitErr.ExitCode(), strings.TrimSpace(stderr.String())))
		}
		return ports.IntegrationResponse{}, core.NewExternalToolError(s.Name(), fmt.Errorf("run %s: %w", s.cfg.Command[0], err))
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		s.logger.Trace("tool output: %s", out)
	}

	value, err := ReadResultFile(resultPath)
	if err != nil {
		return ports.IntegrationResponse{}, core.NewExternalToolError(s.Name(), err)
	}
	s.logger.Debug("request %s integrated to %g in %s", req.ID, value, time.Since(start))

	return ports.IntegrationResponse{ID: req.ID, Value: value}, nil
}

func absOrSame(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
