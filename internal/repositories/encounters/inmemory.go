package encounters

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
)

// InMemoryRepository implements Repository with a mutex-guarded map. Used by
// tests and single-process deployments that don't need Redis.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*encounter.Encounter
	clock clock.Clock
}

// NewInMemory creates a new in-memory repository
func NewInMemory(c clock.Clock) *InMemoryRepository {
	if c == nil {
		c = clock.New()
	}
	return &InMemoryRepository{
		store: make(map[string]*encounter.Encounter),
		clock: c,
	}
}

// Create stores a new encounter
func (r *InMemoryRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Encounter == nil {
		return nil, errors.InvalidArgument(errEncounterNil)
	}
	if input.Encounter.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}
	if input.Encounter.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.Encounter.ID]; exists {
		return nil, errors.AlreadyExistsf("encounter with ID %s already exists", input.Encounter.ID)
	}

	now := r.clock.Now().Unix()
	input.Encounter.CreatedAt = now
	input.Encounter.UpdatedAt = now
	input.Encounter.Version = 1

	stored, err := cloneEncounter(input.Encounter)
	if err != nil {
		return nil, err
	}
	r.store[input.Encounter.ID] = stored

	return &CreateOutput{Encounter: input.Encounter}, nil
}

// Get retrieves an encounter by ID
func (r *InMemoryRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.store[input.ID]
	if !exists {
		return nil, errors.EncounterNotFoundf("encounter with ID %s not found", input.ID)
	}

	// hand out a copy so callers can't mutate the stored record
	copied, err := cloneEncounter(stored)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Encounter: copied}, nil
}

// Update overwrites an existing encounter
func (r *InMemoryRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Encounter == nil {
		return nil, errors.InvalidArgument(errEncounterNil)
	}
	if input.Encounter.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.store[input.Encounter.ID]
	if !exists {
		return nil, errors.EncounterNotFoundf("encounter with ID %s not found", input.Encounter.ID)
	}

	input.Encounter.UpdatedAt = r.clock.Now().Unix()
	input.Encounter.Version = existing.Version + 1

	stored, err := cloneEncounter(input.Encounter)
	if err != nil {
		return nil, err
	}
	r.store[input.Encounter.ID] = stored

	return &UpdateOutput{Encounter: input.Encounter}, nil
}

// Delete removes an encounter
func (r *InMemoryRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.ID]; !exists {
		return nil, errors.EncounterNotFoundf("encounter with ID %s not found", input.ID)
	}
	delete(r.store, input.ID)

	return &DeleteOutput{}, nil
}

// ListByOwnerID retrieves all encounters owned by a user
func (r *InMemoryRepository) ListByOwnerID(
	ctx context.Context,
	input ListByOwnerIDInput,
) (*ListByOwnerIDOutput, error) {
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*encounter.Encounter, 0)
	for _, stored := range r.store {
		if stored.OwnerID != input.OwnerID {
			continue
		}
		copied, err := cloneEncounter(stored)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}

	return &ListByOwnerIDOutput{Encounters: out}, nil
}

func cloneEncounter(src *encounter.Encounter) (*encounter.Encounter, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to clone encounter")
	}
	var copied encounter.Encounter
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, errors.Wrapf(err, "failed to clone encounter")
	}
	return &copied, nil
}
