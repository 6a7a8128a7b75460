package templates

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
)

// InMemoryRepository implements Repository with a mutex-guarded map
type InMemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Template
	clock clock.Clock
	idGen idgen.Generator
}

// NewInMemory creates a new in-memory template store
func NewInMemory(c clock.Clock, gen idgen.Generator) *InMemoryRepository {
	if c == nil {
		c = clock.New()
	}
	if gen == nil {
		gen = idgen.NewUUID("tmpl")
	}
	return &InMemoryRepository{
		store: make(map[string]*Template),
		clock: c,
		idGen: gen,
	}
}

// Add stores a new template under a store-generated ID
func (r *InMemoryRepository) Add(ctx context.Context, input AddInput) (*AddOutput, error) {
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}
	if input.Name == "" {
		return nil, errors.InvalidArgument(errTemplateNameEmpty)
	}
	if input.Envelope == nil {
		return nil, errors.InvalidArgument(errEnvelopeNil)
	}

	tmpl := &Template{
		ID:        r.idGen.Generate(),
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		Envelope:  input.Envelope,
		CreatedAt: r.clock.Now().Unix(),
	}

	stored, err := cloneTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[tmpl.ID] = stored

	return &AddOutput{Template: tmpl}, nil
}

// Find retrieves a template by ID
func (r *InMemoryRepository) Find(ctx context.Context, input FindInput) (*FindOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errTemplateIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.store[input.ID]
	if !exists {
		return nil, errors.NotFoundf("template with ID %s not found", input.ID)
	}

	copied, err := cloneTemplate(stored)
	if err != nil {
		return nil, err
	}
	return &FindOutput{Template: copied}, nil
}

// Remove deletes a template by ID
func (r *InMemoryRepository) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errTemplateIDEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.ID]; !exists {
		return nil, errors.NotFoundf("template with ID %s not found", input.ID)
	}
	delete(r.store, input.ID)

	return &RemoveOutput{}, nil
}

// ListByOwnerID retrieves all templates owned by a user
func (r *InMemoryRepository) ListByOwnerID(
	ctx context.Context,
	input ListByOwnerIDInput,
) (*ListByOwnerIDOutput, error) {
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0)
	for _, stored := range r.store {
		if stored.OwnerID != input.OwnerID {
			continue
		}
		copied, err := cloneTemplate(stored)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}

	return &ListByOwnerIDOutput{Templates: out}, nil
}

func cloneTemplate(src *Template) (*Template, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to clone template")
	}
	var copied Template
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, errors.Wrapf(err, "failed to clone template")
	}
	return &copied, nil
}
