// Package encounter implements the encounter orchestrator: participant
// management, the combat state machine, and initiative handling on top of
// the encounter repository.
package encounter

//go:generate mockgen -destination=mock/mock_service.go -package=encountermock github.com/tablewright/encounter-api/internal/orchestrators/encounter Service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/tablewright/encounter-api/internal/combat"
	entities "github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/permissions"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
	"github.com/tablewright/encounter-api/internal/registry"
	"github.com/tablewright/encounter-api/internal/repositories/encounters"
)

// Service defines the interface for encounter operations
type Service interface {
	// CreateEncounter creates a new draft encounter
	CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*CreateEncounterOutput, error)

	// GetEncounter reads an encounter the user owns or has been shared
	GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error)

	// ShareEncounter replaces the encounter's share list (owner only)
	ShareEncounter(ctx context.Context, input *ShareEncounterInput) (*ShareEncounterOutput, error)

	// AddParticipant appends one validated participant to the list
	AddParticipant(ctx context.Context, input *AddParticipantInput) (*AddParticipantOutput, error)

	// AddParticipants appends a batch; either every spec is added or none
	AddParticipants(ctx context.Context, input *AddParticipantsInput) (*AddParticipantsOutput, error)

	// UpdateParticipant applies a partial update to one participant
	UpdateParticipant(ctx context.Context, input *UpdateParticipantInput) (*UpdateParticipantOutput, error)

	// RemoveParticipant removes a participant; mid-combat its initiative
	// entry is deactivated so the turn cursor skips it
	RemoveParticipant(ctx context.Context, input *RemoveParticipantInput) (*RemoveParticipantOutput, error)

	// ReorderParticipants applies a complete new ordering or nothing
	ReorderParticipants(ctx context.Context, input *ReorderParticipantsInput) (*ReorderParticipantsOutput, error)

	// StartCombat begins combat at round 1, turn 0
	StartCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error)

	// PauseCombat suspends a running combat
	PauseCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error)

	// ResumeCombat continues a paused combat
	ResumeCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error)

	// EndCombat finishes combat, keeping the order for historical display
	EndCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error)

	// NextTurn advances the turn cursor, wrapping into a new round
	NextTurn(ctx context.Context, input *CombatInput) (*CombatOutput, error)

	// PreviousTurn steps the turn cursor back, unwinding round wraps
	PreviousTurn(ctx context.Context, input *CombatInput) (*CombatOutput, error)

	// SetInitiative fixes one participant's initiative value
	SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error)

	// RollInitiative rolls d20 + dexterity modifier for the named
	// participants, or for everyone without a value
	RollInitiative(ctx context.Context, input *RollInitiativeInput) (*RollInitiativeOutput, error)

	// ApplyDamage deals damage, consuming temporary hit points first
	ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error)

	// ApplyHealing heals up to the participant's maximum
	ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error)

	// AddCondition tags a participant with a condition
	AddCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error)

	// RemoveCondition clears a condition tag
	RemoveCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error)
}

// DiceRoller rolls dice for initiative. Implemented by rpg-toolkit in
// production and stubbed in tests.
type DiceRoller interface {
	Roll(count, size int) (int32, error)
}

type toolkitRoller struct{}

func (toolkitRoller) Roll(count, size int) (int32, error) {
	roll, err := dice.NewRoll(count, size)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create dice roll")
	}
	return int32(roll.GetValue()), nil
}

// Config holds the dependencies for the encounter orchestrator
type Config struct {
	EncounterRepo encounters.Repository

	// IDGenerator mints encounter IDs
	IDGenerator idgen.Generator

	// ParticipantIDGen mints participant IDs
	ParticipantIDGen idgen.Generator

	// DiceRoller defaults to the rpg-toolkit roller
	DiceRoller DiceRoller

	// Clock defaults to the real clock
	Clock clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.EncounterRepo == nil {
		vb.RequiredField("EncounterRepo")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.ParticipantIDGen == nil {
		vb.RequiredField("ParticipantIDGen")
	}

	return vb.Build()
}

type orchestrator struct {
	encounterRepo encounters.Repository
	idGen         idgen.Generator
	participantID idgen.Generator
	roller        DiceRoller
	clock         clock.Clock
}

// NewOrchestrator creates a new encounter orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	roller := cfg.DiceRoller
	if roller == nil {
		roller = toolkitRoller{}
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &orchestrator{
		encounterRepo: cfg.EncounterRepo,
		idGen:         cfg.IDGenerator,
		participantID: cfg.ParticipantIDGen,
		roller:        roller,
		clock:         c,
	}, nil
}

func (o *orchestrator) CreateEncounter(
	ctx context.Context,
	input *CreateEncounterInput,
) (*CreateEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("ownerId", input.OwnerID, vb)
	errors.ValidateRequired("name", input.Name, vb)
	errors.ValidateMaxLength("name", input.Name, registry.MaxNameLength, vb)
	errors.ValidateMaxLength("description", input.Description, 1000, vb)
	if len(input.Tags) > 10 {
		vb.Field("tags", "must have no more than 10 items")
	}
	for i, tag := range input.Tags {
		if strings.TrimSpace(tag) == "" || len(tag) > 30 {
			vb.Fieldf("tags["+strconv.Itoa(i)+"]", "must be a string of 1 to 30 characters")
		}
	}
	if input.Difficulty != "" {
		errors.ValidateEnum("difficulty", string(input.Difficulty), entities.Difficulties(), vb)
	}
	if input.TargetLevel != 0 {
		errors.ValidateRange("targetLevel", int(input.TargetLevel), 1, 20, vb)
	}
	if input.Settings.GridEnabled || input.Settings.GridSize != 0 {
		errors.ValidateRange("settings.gridSize", int(input.Settings.GridSize), 1, 50, vb)
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	enc := &entities.Encounter{
		ID:                o.idGen.Generate(),
		OwnerID:           input.OwnerID,
		Name:              input.Name,
		Description:       input.Description,
		Tags:              input.Tags,
		Difficulty:        input.Difficulty,
		TargetLevel:       input.TargetLevel,
		EstimatedDuration: input.EstimatedDuration,
		Status:            entities.StatusDraft,
		IsPublic:          input.IsPublic,
		Settings:          input.Settings,
	}

	created, err := o.encounterRepo.Create(ctx, encounters.CreateInput{Encounter: enc})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "encounter created",
		"encounter_id", created.Encounter.ID,
		"owner_id", created.Encounter.OwnerID)

	return &CreateEncounterOutput{Encounter: created.Encounter}, nil
}

func (o *orchestrator) GetEncounter(
	ctx context.Context,
	input *GetEncounterInput,
) (*GetEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	got, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: input.EncounterID})
	if err != nil {
		return nil, err
	}
	if err := permissions.CanExport(got.Encounter, input.UserID); err != nil {
		return nil, err
	}

	return &GetEncounterOutput{Encounter: got.Encounter}, nil
}

func (o *orchestrator) ShareEncounter(
	ctx context.Context,
	input *ShareEncounterInput,
) (*ShareEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		shared := make([]string, 0, len(input.SharedWith))
		for _, id := range input.SharedWith {
			if strings.TrimSpace(id) == "" || id == enc.OwnerID {
				continue
			}
			shared = append(shared, id)
		}
		enc.SharedWith = shared
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ShareEncounterOutput{Encounter: enc}, nil
}

func (o *orchestrator) AddParticipant(
	ctx context.Context,
	input *AddParticipantInput,
) (*AddParticipantOutput, error) {
	if input == nil || input.Participant == nil {
		return nil, errors.InvalidArgument("participant is required")
	}

	p := o.fromSpec(input.Participant)
	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return registry.Add(enc, p)
	})
	if err != nil {
		return nil, err
	}

	return &AddParticipantOutput{Encounter: enc, Participant: enc.Participant(p.ID)}, nil
}

func (o *orchestrator) AddParticipants(
	ctx context.Context,
	input *AddParticipantsInput,
) (*AddParticipantsOutput, error) {
	if input == nil || len(input.Participants) == 0 {
		return nil, errors.InvalidArgument("participants are required")
	}

	batch := make([]*entities.Participant, len(input.Participants))
	for i, spec := range input.Participants {
		if spec == nil {
			return nil, errors.InvalidArgumentf("participants[%d] is required", i)
		}
		batch[i] = o.fromSpec(spec)
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return registry.AddBulk(enc, batch)
	})
	if err != nil {
		return nil, err
	}

	added := make([]*entities.Participant, len(batch))
	for i, p := range batch {
		added[i] = enc.Participant(p.ID)
	}
	return &AddParticipantsOutput{Encounter: enc, Participants: added}, nil
}

func (o *orchestrator) UpdateParticipant(
	ctx context.Context,
	input *UpdateParticipantInput,
) (*UpdateParticipantOutput, error) {
	if input == nil || input.Update == nil {
		return nil, errors.InvalidArgument("update is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return registry.Update(enc, input.ParticipantID, input.Update)
	})
	if err != nil {
		return nil, err
	}

	return &UpdateParticipantOutput{
		Encounter:   enc,
		Participant: enc.Participant(input.ParticipantID),
	}, nil
}

func (o *orchestrator) RemoveParticipant(
	ctx context.Context,
	input *RemoveParticipantInput,
) (*RemoveParticipantOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		if err := registry.Remove(enc, input.ParticipantID); err != nil {
			return err
		}
		// the initiative row outlives the participant so the round
		// history stays intact, but the cursor must skip it
		if entry := enc.Combat.Entry(input.ParticipantID); entry != nil {
			entry.IsActive = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RemoveParticipantOutput{Encounter: enc}, nil
}

func (o *orchestrator) ReorderParticipants(
	ctx context.Context,
	input *ReorderParticipantsInput,
) (*ReorderParticipantsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return registry.Reorder(enc, input.ParticipantIDs)
	})
	if err != nil {
		return nil, err
	}

	return &ReorderParticipantsOutput{Encounter: enc}, nil
}

func (o *orchestrator) StartCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error) {
	out, err := o.combatTransition(ctx, input, combat.Start)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "combat started",
		"encounter_id", input.EncounterID,
		"combatants", len(out.Encounter.Combat.InitiativeOrder))
	return out, nil
}

func (o *orchestrator) PauseCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error) {
	return o.combatTransition(ctx, input, combat.Pause)
}

func (o *orchestrator) ResumeCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error) {
	return o.combatTransition(ctx, input, combat.Resume)
}

func (o *orchestrator) EndCombat(ctx context.Context, input *CombatInput) (*CombatOutput, error) {
	return o.combatTransition(ctx, input, combat.End)
}

func (o *orchestrator) NextTurn(ctx context.Context, input *CombatInput) (*CombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, combat.NextTurn)
	if err != nil {
		return nil, err
	}
	return &CombatOutput{Encounter: enc}, nil
}

func (o *orchestrator) PreviousTurn(ctx context.Context, input *CombatInput) (*CombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, combat.PreviousTurn)
	if err != nil {
		return nil, err
	}
	return &CombatOutput{Encounter: enc}, nil
}

func (o *orchestrator) SetInitiative(
	ctx context.Context,
	input *SetInitiativeInput,
) (*SetInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return combat.SetInitiative(enc, input.ParticipantID, input.Initiative)
	})
	if err != nil {
		return nil, err
	}

	return &SetInitiativeOutput{Encounter: enc}, nil
}

func (o *orchestrator) RollInitiative(
	ctx context.Context,
	input *RollInitiativeInput,
) (*RollInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	rolls := make(map[string]int32)
	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		targets := input.ParticipantIDs
		if len(targets) == 0 {
			for _, p := range enc.Participants {
				if p.Initiative == nil {
					targets = append(targets, p.ID)
				}
			}
		}

		for _, id := range targets {
			p := enc.Participant(id)
			if p == nil {
				return errors.ParticipantNotFoundf("participant with ID %s not found", id)
			}

			rolled, err := o.roller.Roll(1, 20)
			if err != nil {
				return err
			}
			value := rolled + p.DexModifier()
			if err := combat.SetInitiative(enc, id, value); err != nil {
				return err
			}
			rolls[id] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RollInitiativeOutput{Encounter: enc, Rolls: rolls}, nil
}

func (o *orchestrator) ApplyDamage(
	ctx context.Context,
	input *ApplyDamageInput,
) (*ApplyDamageOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return combat.ApplyDamage(enc, input.ParticipantID, input.Amount)
	})
	if err != nil {
		return nil, err
	}

	return &ApplyDamageOutput{
		Encounter:   enc,
		Participant: enc.Participant(input.ParticipantID),
	}, nil
}

func (o *orchestrator) ApplyHealing(
	ctx context.Context,
	input *ApplyHealingInput,
) (*ApplyHealingOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return combat.ApplyHealing(enc, input.ParticipantID, input.Amount)
	})
	if err != nil {
		return nil, err
	}

	return &ApplyHealingOutput{
		Encounter:   enc,
		Participant: enc.Participant(input.ParticipantID),
	}, nil
}

func (o *orchestrator) AddCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error) {
	return o.condition(ctx, input, combat.AddCondition)
}

func (o *orchestrator) RemoveCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error) {
	return o.condition(ctx, input, combat.RemoveCondition)
}

func (o *orchestrator) condition(
	ctx context.Context,
	input *ConditionInput,
	apply func(*entities.Encounter, string, string) error,
) (*ConditionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return apply(enc, input.ParticipantID, input.Condition)
	})
	if err != nil {
		return nil, err
	}

	return &ConditionOutput{
		Encounter:   enc,
		Participant: enc.Participant(input.ParticipantID),
	}, nil
}

func (o *orchestrator) combatTransition(
	ctx context.Context,
	input *CombatInput,
	transition func(*entities.Encounter, time.Time) error,
) (*CombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	enc, err := o.mutate(ctx, input.EncounterID, input.UserID, func(enc *entities.Encounter) error {
		return transition(enc, o.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	return &CombatOutput{Encounter: enc}, nil
}

// mutate loads the encounter, checks the owner guard, applies fn, and
// persists the result. A failed fn leaves the stored encounter untouched.
func (o *orchestrator) mutate(
	ctx context.Context,
	encounterID, userID string,
	fn func(*entities.Encounter) error,
) (*entities.Encounter, error) {
	if encounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	got, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: encounterID})
	if err != nil {
		return nil, err
	}
	enc := got.Encounter

	if err := permissions.CanModify(enc, userID); err != nil {
		return nil, err
	}
	if err := fn(enc); err != nil {
		return nil, err
	}

	updated, err := o.encounterRepo.Update(ctx, encounters.UpdateInput{Encounter: enc})
	if err != nil {
		return nil, err
	}
	return updated.Encounter, nil
}

func (o *orchestrator) fromSpec(spec *ParticipantSpec) *entities.Participant {
	current := spec.MaxHitPoints
	if spec.CurrentHitPoints != nil {
		current = *spec.CurrentHitPoints
	}

	return &entities.Participant{
		ID:               o.participantID.Generate(),
		CharacterID:      spec.CharacterID,
		Name:             spec.Name,
		Type:             spec.Type,
		MaxHitPoints:     spec.MaxHitPoints,
		CurrentHitPoints: current,
		TempHitPoints:    spec.TempHitPoints,
		ArmorClass:       spec.ArmorClass,
		Initiative:       spec.Initiative,
		Dexterity:        spec.Dexterity,
		IsPlayer:         spec.IsPlayer,
		IsVisible:        spec.IsVisible,
		Notes:            spec.Notes,
		Conditions:       spec.Conditions,
		Position:         spec.Position,
	}
}
