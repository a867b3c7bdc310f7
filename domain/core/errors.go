package core

import (
	"errors"
	"fmt"
)

// Domain errors - matched with errors.Is by callers
var (
	// Shape errors
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrEmptySamples  = fmt.Errorf("%w: at least one sample is required", ErrShapeMismatch)

	// External tool errors
	ErrExternalTool  = errors.New("external tool error")
	ErrToolExit      = fmt.Errorf("%w: non-zero exit", ErrExternalTool)
	ErrResultMissing = fmt.Errorf("%w: result file missing", ErrExternalTool)
	ErrResultInvalid = fmt.Errorf("%w: result unparseable", ErrExternalTool)

	// Option errors
	ErrInvalidOptions = errors.New("invalid options")
)

// NewShapeMismatchError reports the offending vector lengths
func NewShapeMismatchError(power, weights, frequency int) error {
	return fmt.Errorf("%w: power=%d weights=%d frequency=%d", ErrShapeMismatch, power, weights, frequency)
}

// NewSizeError reports samples that do not match the size an estimator was built for
func NewSizeError(expected, got int) error {
	return fmt.Errorf("%w: estimator expects %d samples, got %d", ErrShapeMismatch, expected, got)
}

// NewExternalToolError wraps a failure of the delegated integration tool
func NewExternalToolError(tool string, err error) error {
	if errors.Is(err, ErrExternalTool) {
		return fmt.Errorf("%s: %w", tool, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrExternalTool, tool, err)
}

// NewInvalidOptionError reports a bad option value
func NewInvalidOptionError(option string, value interface{}) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidOptions, option, value)
}

func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

func IsExternalToolError(err error) bool {
	return errors.Is(err, ErrExternalTool)
}

func IsInvalidOptions(err error) bool {
	return errors.Is(err, ErrInvalidOptions)
}
