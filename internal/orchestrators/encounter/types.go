package encounter

import (
	entities "github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/registry"
)

// ParticipantSpec describes a combatant to add. The orchestrator assigns the
// participant ID.
type ParticipantSpec struct {
	CharacterID string
	Name        string
	Type        entities.ParticipantType

	MaxHitPoints int32

	// CurrentHitPoints starts at max when nil
	CurrentHitPoints *int32
	TempHitPoints    int32
	ArmorClass       int32

	Initiative *int32
	Dexterity  int32

	IsPlayer   bool
	IsVisible  bool
	Notes      string
	Conditions []string
	Position   *entities.GridPosition
}

// CreateEncounterInput defines the input for creating an encounter
type CreateEncounterInput struct {
	OwnerID           string
	Name              string
	Description       string
	Tags              []string
	Difficulty        entities.Difficulty
	TargetLevel       int32
	EstimatedDuration int32
	IsPublic          bool
	Settings          entities.Settings
}

// CreateEncounterOutput defines the output for creating an encounter
type CreateEncounterOutput struct {
	Encounter *entities.Encounter
}

// GetEncounterInput defines the input for reading an encounter
type GetEncounterInput struct {
	EncounterID string
	UserID      string
}

// GetEncounterOutput defines the output for reading an encounter
type GetEncounterOutput struct {
	Encounter *entities.Encounter
}

// ShareEncounterInput defines the input for replacing the share list
type ShareEncounterInput struct {
	EncounterID string
	UserID      string
	SharedWith  []string
}

// ShareEncounterOutput defines the output for replacing the share list
type ShareEncounterOutput struct {
	Encounter *entities.Encounter
}

// AddParticipantInput defines the input for adding one participant
type AddParticipantInput struct {
	EncounterID string
	UserID      string
	Participant *ParticipantSpec
}

// AddParticipantOutput defines the output for adding one participant
type AddParticipantOutput struct {
	Encounter   *entities.Encounter
	Participant *entities.Participant
}

// AddParticipantsInput defines the input for the all-or-nothing bulk add
type AddParticipantsInput struct {
	EncounterID  string
	UserID       string
	Participants []*ParticipantSpec
}

// AddParticipantsOutput defines the output for the bulk add
type AddParticipantsOutput struct {
	Encounter    *entities.Encounter
	Participants []*entities.Participant
}

// UpdateParticipantInput defines the input for a partial participant update
type UpdateParticipantInput struct {
	EncounterID   string
	UserID        string
	ParticipantID string
	Update        *registry.ParticipantUpdate
}

// UpdateParticipantOutput defines the output for a participant update
type UpdateParticipantOutput struct {
	Encounter   *entities.Encounter
	Participant *entities.Participant
}

// RemoveParticipantInput defines the input for removing a participant
type RemoveParticipantInput struct {
	EncounterID   string
	UserID        string
	ParticipantID string
}

// RemoveParticipantOutput defines the output for removing a participant
type RemoveParticipantOutput struct {
	Encounter *entities.Encounter
}

// ReorderParticipantsInput defines the input for reordering the list
type ReorderParticipantsInput struct {
	EncounterID    string
	UserID         string
	ParticipantIDs []string
}

// ReorderParticipantsOutput defines the output for reordering the list
type ReorderParticipantsOutput struct {
	Encounter *entities.Encounter
}

// CombatInput identifies an encounter for a combat transition
type CombatInput struct {
	EncounterID string
	UserID      string
}

// CombatOutput carries the encounter after a combat transition
type CombatOutput struct {
	Encounter *entities.Encounter
}

// SetInitiativeInput defines the input for fixing one initiative value
type SetInitiativeInput struct {
	EncounterID   string
	UserID        string
	ParticipantID string
	Initiative    int32
}

// SetInitiativeOutput defines the output for fixing one initiative value
type SetInitiativeOutput struct {
	Encounter *entities.Encounter
}

// RollInitiativeInput defines the input for rolling initiative. An empty
// ParticipantIDs list rolls for every participant without a value.
type RollInitiativeInput struct {
	EncounterID    string
	UserID         string
	ParticipantIDs []string
}

// RollInitiativeOutput carries the rolled values keyed by participant ID
type RollInitiativeOutput struct {
	Encounter *entities.Encounter
	Rolls     map[string]int32
}

// ApplyDamageInput defines the input for dealing damage
type ApplyDamageInput struct {
	EncounterID   string
	UserID        string
	ParticipantID string
	Amount        int32
}

// ApplyDamageOutput carries the participant after damage
type ApplyDamageOutput struct {
	Encounter   *entities.Encounter
	Participant *entities.Participant
}

// ApplyHealingInput defines the input for healing
type ApplyHealingInput struct {
	EncounterID   string
	UserID        string
	ParticipantID string
	Amount        int32
}

// ApplyHealingOutput carries the participant after healing
type ApplyHealingOutput struct {
	Encounter   *entities.Encounter
	Participant *entities.Participant
}

// ConditionInput defines the input for adding or removing a condition tag
type ConditionInput struct {
	EncounterID   string
	UserID        string
	ParticipantID string
	Condition     string
}

// ConditionOutput carries the participant after the condition change
type ConditionOutput struct {
	Encounter   *entities.Encounter
	Participant *entities.Participant
}
