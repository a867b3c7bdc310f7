package config

import (
	"testing"
	"time"

	"windaep/domain/aep"
	"windaep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"AEP_METHOD", "AEP_SAMPLES", "SOLVER_KIND", "SOLVER_COMMAND", "SOLVER_WORKDIR",
	"SOLVER_INPUT_FILE", "SOLVER_RESULT_FILE", "SOLVER_URL", "SOLVER_TIMEOUT",
	"FD_FORM", "FD_STEP_SIZE", "FD_STEP_TYPE", "PORT", "GIN_MODE", "BATCH_CONCURRENCY", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MethodSimple, cfg.Estimator.Method)
	assert.Equal(t, SolverNone, cfg.Solver.Kind)
	assert.Equal(t, "powerInput.txt", cfg.Solver.InputFile)
	assert.Equal(t, "AEP.txt", cfg.Solver.ResultFile)
	assert.Equal(t, 30*time.Second, cfg.Solver.Timeout)
	assert.Equal(t, aep.DefaultFDOptions(), cfg.Check)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
}

func TestLoad_FileSolver(t *testing.T) {
	clearEnv(t)
	t.Setenv("AEP_METHOD", "external")
	t.Setenv("SOLVER_COMMAND", "python getDakotaAEP.py dakotaAEP.in")
	t.Setenv("SOLVER_WORKDIR", "/tmp/dakota")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MethodExternal, cfg.Estimator.Method)
	assert.Equal(t, SolverFile, cfg.Solver.Kind)
	assert.Equal(t, []string{"python", "getDakotaAEP.py", "dakotaAEP.in"}, cfg.Solver.Command)
	assert.Equal(t, "/tmp/dakota", cfg.Solver.WorkDir)
}

func TestLoad_RemoteSolverInferred(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOLVER_URL", "http://uq:8080")
	t.Setenv("SOLVER_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SolverRemote, cfg.Solver.Kind)
	assert.Equal(t, 5*time.Second, cfg.Solver.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown method", map[string]string{"AEP_METHOD": "chaospy"}},
		{"external without solver", map[string]string{"AEP_METHOD": "external"}},
		{"file without command", map[string]string{"SOLVER_KIND": "file"}},
		{"remote without url", map[string]string{"SOLVER_KIND": "remote"}},
		{"unknown solver", map[string]string{"SOLVER_KIND": "grpc"}},
		{"bad fd form", map[string]string{"FD_FORM": "complex"}},
		{"bad concurrency", map[string]string{"BATCH_CONCURRENCY": "0"}},
		{"negative samples", map[string]string{"AEP_SAMPLES": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
