// Package characters provides the interface for character persistence
package characters

//go:generate mockgen -destination=mock/mock_repository.go -package=charactersmock github.com/tablewright/encounter-api/internal/repositories/characters Repository

import (
	"context"

	"github.com/tablewright/encounter-api/internal/entities/character"
)

// Repository defines the interface for character persistence
type Repository interface {
	// Create persists a new character record
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.AlreadyExists if a character with the same ID exists
	// Returns errors.CodeStorage for storage failures
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a character by ID
	// Returns errors.InvalidArgument for empty IDs
	// Returns errors.NotFound if the character doesn't exist
	// Returns errors.CodeStorage for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update overwrites an existing character record
	// Returns errors.NotFound if the character doesn't exist
	// Returns errors.CodeStorage for storage failures
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// Delete removes a character by ID
	// Returns errors.NotFound if the character doesn't exist
	// Returns errors.CodeStorage for storage failures
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// ListByOwnerID retrieves all characters owned by a user
	// Returns errors.InvalidArgument for empty owner IDs
	// Returns errors.CodeStorage for storage failures
	ListByOwnerID(ctx context.Context, input ListByOwnerIDInput) (*ListByOwnerIDOutput, error)
}

// CreateInput defines the input for creating a character
type CreateInput struct {
	Character *character.Character
}

// CreateOutput defines the output for creating a character
type CreateOutput struct {
	Character *character.Character
}

// GetInput defines the input for getting a character
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting a character
type GetOutput struct {
	Character *character.Character
}

// UpdateInput defines the input for updating a character
type UpdateInput struct {
	Character *character.Character
}

// UpdateOutput defines the output for updating a character
type UpdateOutput struct {
	Character *character.Character
}

// DeleteInput defines the input for deleting a character
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the output for deleting a character
type DeleteOutput struct{}

// ListByOwnerIDInput defines the input for listing characters by owner
type ListByOwnerIDInput struct {
	OwnerID string
}

// ListByOwnerIDOutput defines the output for listing characters by owner
type ListByOwnerIDOutput struct {
	Characters []*character.Character
}
