package characters

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tablewright/encounter-api/internal/entities/character"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
)

// InMemoryRepository implements Repository with a mutex-guarded map
type InMemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*character.Character
	clock clock.Clock
}

// NewInMemory creates a new in-memory repository
func NewInMemory(c clock.Clock) *InMemoryRepository {
	if c == nil {
		c = clock.New()
	}
	return &InMemoryRepository{
		store: make(map[string]*character.Character),
		clock: c,
	}
}

// Create stores a new character
func (r *InMemoryRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Character == nil {
		return nil, errors.InvalidArgument(errCharacterNil)
	}
	if input.Character.ID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}
	if input.Character.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.Character.ID]; exists {
		return nil, errors.AlreadyExistsf("character with ID %s already exists", input.Character.ID)
	}

	now := r.clock.Now().Unix()
	input.Character.CreatedAt = now
	input.Character.UpdatedAt = now

	stored, err := cloneCharacter(input.Character)
	if err != nil {
		return nil, err
	}
	r.store[input.Character.ID] = stored

	return &CreateOutput{Character: input.Character}, nil
}

// Get retrieves a character by ID
func (r *InMemoryRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.store[input.ID]
	if !exists {
		return nil, errors.NotFoundf("character with ID %s not found", input.ID)
	}

	copied, err := cloneCharacter(stored)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Character: copied}, nil
}

// Update overwrites an existing character
func (r *InMemoryRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Character == nil {
		return nil, errors.InvalidArgument(errCharacterNil)
	}
	if input.Character.ID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.store[input.Character.ID]
	if !exists {
		return nil, errors.NotFoundf("character with ID %s not found", input.Character.ID)
	}

	input.Character.CreatedAt = existing.CreatedAt
	input.Character.UpdatedAt = r.clock.Now().Unix()

	stored, err := cloneCharacter(input.Character)
	if err != nil {
		return nil, err
	}
	r.store[input.Character.ID] = stored

	return &UpdateOutput{Character: input.Character}, nil
}

// Delete removes a character
func (r *InMemoryRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.ID]; !exists {
		return nil, errors.NotFoundf("character with ID %s not found", input.ID)
	}
	delete(r.store, input.ID)

	return &DeleteOutput{}, nil
}

// ListByOwnerID retrieves all characters owned by a user
func (r *InMemoryRepository) ListByOwnerID(
	ctx context.Context,
	input ListByOwnerIDInput,
) (*ListByOwnerIDOutput, error) {
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*character.Character, 0)
	for _, stored := range r.store {
		if stored.OwnerID != input.OwnerID {
			continue
		}
		copied, err := cloneCharacter(stored)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}

	return &ListByOwnerIDOutput{Characters: out}, nil
}

func cloneCharacter(src *character.Character) (*character.Character, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to clone character")
	}
	var copied character.Character
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, errors.Wrapf(err, "failed to clone character")
	}
	return &copied, nil
}
