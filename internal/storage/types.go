package storage

import (
	"errors"

	"github.com/scrypster/grounder/pkg/types"
)

var (
	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingLayer indicates that no privacy layer was supplied.
	// Every store call must be scoped to a layer.
	ErrMissingLayer = errors.New("layer is required")
)

// Default thresholds for the fuzzy and semantic tiers.
const (
	// DefaultFuzzyThreshold is the minimum trigram similarity for a
	// fuzzy candidate to be admitted (tier 3).
	DefaultFuzzyThreshold = 0.3

	// DefaultSemanticThreshold is the minimum cosine similarity for a
	// semantic candidate to be admitted (tier 4).
	DefaultSemanticThreshold = 0.7
)

// ResolveOptions scopes and tunes a knowledge-store call.
type ResolveOptions struct {
	// Layer is the privacy/partition scope. Opaque to this subsystem;
	// required on every call.
	Layer string

	// EntityTypes restricts matching to the given types. Empty means
	// all types.
	EntityTypes []types.EntityType

	// FuzzyThreshold is the tier-3 admission threshold. Zero means
	// DefaultFuzzyThreshold.
	FuzzyThreshold float64

	// SemanticThreshold is the tier-4 admission threshold. Zero means
	// DefaultSemanticThreshold.
	SemanticThreshold float64

	// Limit caps candidates returned per mention (default: 5).
	Limit int
}

// Normalize applies defaults and validates the ResolveOptions.
func (o *ResolveOptions) Normalize() {
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if o.FuzzyThreshold > 1.0 {
		o.FuzzyThreshold = 1.0
	}

	if o.SemanticThreshold <= 0 {
		o.SemanticThreshold = DefaultSemanticThreshold
	}
	if o.SemanticThreshold > 1.0 {
		o.SemanticThreshold = 1.0
	}

	if o.Limit < 1 {
		o.Limit = 5
	}
	if o.Limit > 50 {
		o.Limit = 50
	}
}

// TypeStrings returns EntityTypes as plain strings for SQL binding.
// Returns nil when no type filter is set.
func (o *ResolveOptions) TypeStrings() []string {
	if len(o.EntityTypes) == 0 {
		return nil
	}
	out := make([]string, len(o.EntityTypes))
	for i, t := range o.EntityTypes {
		out[i] = string(t)
	}
	return out
}
