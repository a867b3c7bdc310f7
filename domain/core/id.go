package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	EvaluationID ID
	RequestID    ID
)

func (id EvaluationID) String() string { return ID(id).String() }
func (id RequestID) String() string    { return ID(id).String() }

// NewEvaluationID returns a fresh evaluation identifier
func NewEvaluationID() EvaluationID {
	return EvaluationID(NewID())
}

// NewRequestID returns a fresh solver request identifier
func NewRequestID() RequestID {
	return RequestID(NewID())
}

// ParseEvaluationID parses a string into EvaluationID
func ParseEvaluationID(s string) (EvaluationID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("evaluation ID cannot be empty")
	}
	return EvaluationID(s), nil
}
