// Package templates provides the store abstraction for encounter templates.
// Templates are sanitized export envelopes kept for reuse; the store
// generates their identifiers.
package templates

//go:generate mockgen -destination=mock/mock_repository.go -package=templatesmock github.com/tablewright/encounter-api/internal/repositories/templates Repository

import (
	"context"

	"github.com/tablewright/encounter-api/internal/export"
)

// Template is a stored, reusable encounter envelope
type Template struct {
	ID       string
	OwnerID  string
	Name     string
	Envelope *export.Envelope

	CreatedAt int64
}

// Repository defines the interface for template persistence
type Repository interface {
	// Add stores a new template under a store-generated ID
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.CodeStorage for storage failures
	Add(ctx context.Context, input AddInput) (*AddOutput, error)

	// Find retrieves a template by ID
	// Returns errors.NotFound if the template doesn't exist
	// Returns errors.CodeStorage for storage failures
	Find(ctx context.Context, input FindInput) (*FindOutput, error)

	// Remove deletes a template by ID
	// Returns errors.NotFound if the template doesn't exist
	// Returns errors.CodeStorage for storage failures
	Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error)

	// ListByOwnerID retrieves all templates owned by a user
	// Returns errors.InvalidArgument for empty owner IDs
	// Returns errors.CodeStorage for storage failures
	ListByOwnerID(ctx context.Context, input ListByOwnerIDInput) (*ListByOwnerIDOutput, error)
}

// AddInput defines the input for storing a template
type AddInput struct {
	OwnerID  string
	Name     string
	Envelope *export.Envelope
}

// AddOutput defines the output for storing a template
type AddOutput struct {
	Template *Template
}

// FindInput defines the input for finding a template
type FindInput struct {
	ID string
}

// FindOutput defines the output for finding a template
type FindOutput struct {
	Template *Template
}

// RemoveInput defines the input for removing a template
type RemoveInput struct {
	ID string
}

// RemoveOutput defines the output for removing a template
type RemoveOutput struct{}

// ListByOwnerIDInput defines the input for listing templates by owner
type ListByOwnerIDInput struct {
	OwnerID string
}

// ListByOwnerIDOutput defines the output for listing templates by owner
type ListByOwnerIDOutput struct {
	Templates []*Template
}
