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
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
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
	SeriesID     ID
	AnalysisID   ID
	HypothesisID ID
)

// String conversions for domain IDs
func (id SeriesID) String() string     { return ID(id).String() }
func (id AnalysisID) String() string   { return ID(id).String() }
func (id HypothesisID) String() string { return ID(id).String() }

// NewAnalysisID creates a new unique analysis identifier
func NewAnalysisID() AnalysisID {
	return AnalysisID(NewID())
}

// NewHypothesisID creates a new unique hypothesis identifier
func NewHypothesisID() HypothesisID {
	return HypothesisID(NewID())
}

// ParseSeriesID parses a string into SeriesID
func ParseSeriesID(s string) (SeriesID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("series ID cannot be empty")
	}
	return SeriesID(s), nil
}

// ParseAnalysisID parses a string into AnalysisID
func ParseAnalysisID(s string) (AnalysisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("analysis ID cannot be empty")
	}
	return AnalysisID(s), nil
}

// ParseHypothesisID parses a string into HypothesisID
func ParseHypothesisID(s string) (HypothesisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("hypothesis ID cannot be empty")
	}
	return HypothesisID(s), nil
}
