package encounter

import "time"

// Phase is the explicit combat state machine tag
type Phase string

// Combat phases. Transitions are NotStarted -> Active <-> Paused -> Ended;
// Ended is terminal.
const (
	PhaseNotStarted Phase = "not_started"
	PhaseActive     Phase = "active"
	PhasePaused     Phase = "paused"
	PhaseEnded      Phase = "ended"
)

// Phases lists the allowed phase values, for enum validation
func Phases() []string {
	return []string{
		string(PhaseNotStarted),
		string(PhaseActive),
		string(PhasePaused),
		string(PhaseEnded),
	}
}

// CombatState is the mutable runtime data tracking whose turn it is and how
// far combat has progressed. Owned exclusively by one Encounter.
type CombatState struct {
	Phase Phase

	// Round starts at 1 when combat begins
	Round int32

	// TurnIndex indexes InitiativeOrder and is always valid while active
	TurnIndex int32

	// InitiativeOrder holds one entry per participant with a resolved
	// initiative, sorted by initiative desc, ties by dexterity desc.
	InitiativeOrder []*InitiativeEntry

	StartedAt *time.Time
	PausedAt  *time.Time
	EndedAt   *time.Time

	// ActiveSince marks when the current active stretch began (set on
	// start and resume, cleared on pause and end)
	ActiveSince *time.Time

	// ActiveDuration accumulates elapsed active time across pauses
	ActiveDuration time.Duration
}

// InitiativeEntry is one row of the turn order
type InitiativeEntry struct {
	ParticipantID string
	Initiative    int32
	Dexterity     int32

	// IsActive is cleared when the participant is removed or down; the
	// turn cursor skips inactive entries.
	IsActive bool

	// HasActed is set as the turn cursor leaves an entry and cleared for
	// everyone when a new round begins.
	HasActed bool

	// Delayed/ready-action markers
	IsDelayed   bool
	ReadyAction string
}

// IsActive reports whether combat is currently running (not paused or over)
func (cs *CombatState) IsActive() bool {
	return cs != nil && cs.Phase == PhaseActive
}

// CurrentEntry returns the entry the turn cursor points at, or nil when the
// order is empty or combat is not running.
func (cs *CombatState) CurrentEntry() *InitiativeEntry {
	if cs == nil || len(cs.InitiativeOrder) == 0 {
		return nil
	}
	if cs.TurnIndex < 0 || int(cs.TurnIndex) >= len(cs.InitiativeOrder) {
		return nil
	}
	return cs.InitiativeOrder[cs.TurnIndex]
}

// Entry returns the initiative entry for a participant, or nil
func (cs *CombatState) Entry(participantID string) *InitiativeEntry {
	if cs == nil {
		return nil
	}
	for _, e := range cs.InitiativeOrder {
		if e.ParticipantID == participantID {
			return e
		}
	}
	return nil
}
