// Package encounter implements the encounter tracker entities
package encounter

// Difficulty rates how dangerous an encounter is for the target level
type Difficulty string

// Difficulty values
const (
	DifficultyTrivial Difficulty = "trivial"
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyDeadly  Difficulty = "deadly"
)

// Status tracks the encounter lifecycle
type Status string

// Status values
const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// ParticipantType distinguishes player characters from GM-controlled combatants
type ParticipantType string

// ParticipantType values
const (
	TypePC      ParticipantType = "pc"
	TypeNPC     ParticipantType = "npc"
	TypeMonster ParticipantType = "monster"
)

// Difficulties lists the allowed difficulty values, for enum validation
func Difficulties() []string {
	return []string{
		string(DifficultyTrivial),
		string(DifficultyEasy),
		string(DifficultyMedium),
		string(DifficultyHard),
		string(DifficultyDeadly),
	}
}

// Statuses lists the allowed status values, for enum validation
func Statuses() []string {
	return []string{
		string(StatusDraft),
		string(StatusActive),
		string(StatusCompleted),
		string(StatusArchived),
	}
}

// ParticipantTypes lists the allowed participant types, for enum validation
func ParticipantTypes() []string {
	return []string{string(TypePC), string(TypeNPC), string(TypeMonster)}
}

// Encounter is the aggregate root for one planned or in-progress combat
// scenario. It is a data-only struct: all mutation goes through the registry
// and combat packages so the ordering and state-machine invariants hold.
type Encounter struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Tags        []string
	Difficulty  Difficulty
	TargetLevel int32

	// EstimatedDuration is the planned table time in minutes
	EstimatedDuration int32

	Status    Status
	IsPublic  bool
	SharedWith []string
	Settings  Settings

	// Version is the optimistic concurrency counter bumped by the
	// persistence layer on every write
	Version int64

	Participants []*Participant

	// Combat is nil until combat has been started at least once. Ending
	// combat clears the phase but keeps the struct for historical display.
	Combat *CombatState

	CreatedAt int64
	UpdatedAt int64
}

// Settings holds the per-encounter table toggles
type Settings struct {
	GridEnabled        bool
	GridSize           int32
	LairActionsEnabled bool
	TrackResources     bool
}

// GridPosition is an optional participant location on the battle grid
type GridPosition struct {
	X int32
	Y int32
}

// Participant is a combatant's presence inside exactly one encounter, not
// the character record itself.
type Participant struct {
	ID          string
	CharacterID string
	Name        string
	Type        ParticipantType

	MaxHitPoints     int32
	CurrentHitPoints int32 // may go negative to represent overkill
	TempHitPoints    int32 // always >= 0
	ArmorClass       int32

	// Initiative is nil until rolled or set
	Initiative *int32

	// Dexterity is the tie-break key for initiative ordering
	Dexterity int32

	IsPlayer   bool
	IsVisible  bool
	Notes      string
	Conditions []string
	Position   *GridPosition
}

// HasCondition reports whether the participant carries the condition tag
func (p *Participant) HasCondition(condition string) bool {
	for _, c := range p.Conditions {
		if c == condition {
			return true
		}
	}
	return false
}

// AddCondition adds a condition tag; idempotent
func (p *Participant) AddCondition(condition string) {
	if p.HasCondition(condition) {
		return
	}
	p.Conditions = append(p.Conditions, condition)
}

// RemoveCondition removes a condition tag; idempotent
func (p *Participant) RemoveCondition(condition string) {
	for i, c := range p.Conditions {
		if c == condition {
			p.Conditions = append(p.Conditions[:i], p.Conditions[i+1:]...)
			return
		}
	}
}

// DexModifier returns the D&D ability modifier for the participant's
// dexterity, flooring for odd scores below 10.
func (p *Participant) DexModifier() int32 {
	d := p.Dexterity - 10
	if d < 0 {
		d--
	}
	return d / 2
}

// Participant returns the participant with the given ID, or nil
func (e *Encounter) Participant(id string) *Participant {
	for _, p := range e.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ParticipantIDs returns the current participant IDs in list order
func (e *Encounter) ParticipantIDs() []string {
	ids := make([]string, len(e.Participants))
	for i, p := range e.Participants {
		ids[i] = p.ID
	}
	return ids
}

// HasCombatStarted reports whether combat was ever started, including
// combats that have since ended.
func (e *Encounter) HasCombatStarted() bool {
	return e.Combat != nil && e.Combat.Phase != PhaseNotStarted
}

// IsSharedWith reports whether the user appears in the share list
func (e *Encounter) IsSharedWith(userID string) bool {
	for _, id := range e.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}
