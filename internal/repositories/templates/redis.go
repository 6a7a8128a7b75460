package templates

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
	redisclient "github.com/tablewright/encounter-api/internal/redis"
)

const (
	templateKeyPrefix = "template:"
	ownerIndexPrefix  = "template:owner:"

	errTemplateNameEmpty = "template name cannot be empty"
	errTemplateIDEmpty   = "template ID cannot be empty"
	errOwnerIDEmpty      = "owner ID cannot be empty"
	errEnvelopeNil       = "envelope cannot be nil"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
	idGen  idgen.Generator
}

// RedisConfig contains configuration for the Redis template store.
type RedisConfig struct {
	Client redisclient.Client
	Clock  clock.Clock
	IDGen  idgen.Generator
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed template store
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	gen := cfg.IDGen
	if gen == nil {
		gen = idgen.NewUUID("tmpl")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  c,
		idGen:  gen,
	}, nil
}

func (r *redisRepository) Add(ctx context.Context, input AddInput) (*AddOutput, error) {
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

	data, err := json.Marshal(tmpl)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal template")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, templateKeyPrefix+tmpl.ID, data, 0)
	pipe.SAdd(ctx, ownerIndexPrefix+tmpl.OwnerID, tmpl.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Storage(err, "failed to store template")
	}

	return &AddOutput{Template: tmpl}, nil
}

func (r *redisRepository) Find(ctx context.Context, input FindInput) (*FindOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errTemplateIDEmpty)
	}

	result, err := r.client.Get(ctx, templateKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("template with ID %s not found", input.ID)
		}
		return nil, errors.Storage(err, "failed to get template")
	}

	var tmpl Template
	if err := json.Unmarshal([]byte(result), &tmpl); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal template")
	}

	return &FindOutput{Template: &tmpl}, nil
}

func (r *redisRepository) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errTemplateIDEmpty)
	}

	existing, err := r.Find(ctx, FindInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, templateKeyPrefix+input.ID)
	pipe.SRem(ctx, ownerIndexPrefix+existing.Template.OwnerID, input.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Storage(err, "failed to remove template")
	}

	return &RemoveOutput{}, nil
}

func (r *redisRepository) ListByOwnerID(
	ctx context.Context,
	input ListByOwnerIDInput,
) (*ListByOwnerIDOutput, error) {
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument(errOwnerIDEmpty)
	}

	indexKey := ownerIndexPrefix + input.OwnerID
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Storage(err, "failed to read owner index")
	}

	out := make([]*Template, 0, len(ids))
	for _, id := range ids {
		got, err := r.Find(ctx, FindInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "template missing, cleaning up owner index",
					"template_id", id,
					"index_key", indexKey)
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, err
		}
		out = append(out, got.Template)
	}

	return &ListByOwnerIDOutput{Templates: out}, nil
}
