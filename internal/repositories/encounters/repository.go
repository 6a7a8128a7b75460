// Package encounters provides the interface for encounter persistence
package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=encountersmock github.com/tablewright/encounter-api/internal/repositories/encounters Repository

import (
	"context"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
)

// Repository defines the interface for encounter persistence
type Repository interface {
	// Create persists a new encounter
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.AlreadyExists if an encounter with the same ID exists
	// Returns errors.CodeStorage for storage failures
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves an encounter by ID
	// Returns errors.InvalidArgument for empty IDs
	// Returns errors.CodeEncounterNotFound if the encounter doesn't exist
	// Returns errors.CodeStorage for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update overwrites an existing encounter and bumps its version
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.CodeEncounterNotFound if the encounter doesn't exist
	// Returns errors.CodeStorage for storage failures
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// Delete removes an encounter by ID
	// Returns errors.CodeEncounterNotFound if the encounter doesn't exist
	// Returns errors.CodeStorage for storage failures
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// ListByOwnerID retrieves all encounters owned by a user
	// Returns errors.InvalidArgument for empty owner IDs
	// Returns errors.CodeStorage for storage failures
	ListByOwnerID(ctx context.Context, input ListByOwnerIDInput) (*ListByOwnerIDOutput, error)
}

// CreateInput defines the input for creating an encounter
type CreateInput struct {
	Encounter *encounter.Encounter
}

// CreateOutput defines the output for creating an encounter
type CreateOutput struct {
	Encounter *encounter.Encounter
}

// GetInput defines the input for getting an encounter
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting an encounter
type GetOutput struct {
	Encounter *encounter.Encounter
}

// UpdateInput defines the input for updating an encounter
type UpdateInput struct {
	Encounter *encounter.Encounter
}

// UpdateOutput defines the output for updating an encounter
type UpdateOutput struct {
	Encounter *encounter.Encounter
}

// DeleteInput defines the input for deleting an encounter
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the output for deleting an encounter
type DeleteOutput struct{}

// ListByOwnerIDInput defines the input for listing encounters by owner
type ListByOwnerIDInput struct {
	OwnerID string
}

// ListByOwnerIDOutput defines the output for listing encounters by owner
type ListByOwnerIDOutput struct {
	Encounters []*encounter.Encounter
}
