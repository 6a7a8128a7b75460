// Package combat implements the turn-based combat state machine for one
// encounter.
//
// The machine moves NotStarted -> Active <-> Paused -> Ended, with Ended
// terminal. Transitions attempted from the wrong phase fail with a
// COMBAT_STATE_ERROR naming the action and the reason; the encounter is
// never left half-mutated.
package combat

import (
	"sort"
	"time"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
)

// Start begins combat. It requires at least one participant with a resolved
// initiative, computes the initial initiative order (initiative desc, ties
// by dexterity desc, remaining ties by list order), and opens round 1 at
// turn index 0. The encounter status moves to active.
func Start(enc *encounter.Encounter, now time.Time) error {
	if enc.Combat != nil {
		switch enc.Combat.Phase {
		case encounter.PhaseActive, encounter.PhasePaused:
			return errors.CombatState("start_combat", "combat is already running")
		case encounter.PhaseEnded:
			return errors.CombatState("start_combat", "combat has already ended")
		}
	}

	if len(enc.Participants) == 0 {
		return errors.CombatState("start_combat", "encounter has no participants")
	}

	order := make([]*encounter.InitiativeEntry, 0, len(enc.Participants))
	for _, p := range enc.Participants {
		if p.Initiative == nil {
			continue
		}
		order = append(order, &encounter.InitiativeEntry{
			ParticipantID: p.ID,
			Initiative:    *p.Initiative,
			Dexterity:     p.Dexterity,
			IsActive:      true,
		})
	}
	if len(order) == 0 {
		return errors.CombatState("start_combat", "no participants have a resolved initiative")
	}
	sortOrder(order)

	started := now
	enc.Combat = &encounter.CombatState{
		Phase:           encounter.PhaseActive,
		Round:           1,
		TurnIndex:       0,
		InitiativeOrder: order,
		StartedAt:       &started,
		ActiveSince:     &started,
	}
	enc.Status = encounter.StatusActive
	return nil
}

// Pause suspends combat and accumulates the elapsed active duration. The
// encounter status stays active while paused.
func Pause(enc *encounter.Encounter, now time.Time) error {
	cs := enc.Combat
	if cs == nil || cs.Phase == encounter.PhaseNotStarted {
		return errors.CombatState("pause_combat", "combat has not started")
	}
	if cs.Phase == encounter.PhaseEnded {
		return errors.CombatState("pause_combat", "combat has already ended")
	}
	if cs.Phase == encounter.PhasePaused {
		return errors.CombatState("pause_combat", "combat is already paused")
	}

	accumulate(cs, now)
	paused := now
	cs.PausedAt = &paused
	cs.ActiveSince = nil
	cs.Phase = encounter.PhasePaused
	return nil
}

// Resume continues a paused combat without resetting round or turn
func Resume(enc *encounter.Encounter, now time.Time) error {
	cs := enc.Combat
	if cs == nil || cs.Phase == encounter.PhaseNotStarted {
		return errors.CombatState("resume_combat", "combat has not started")
	}
	if cs.Phase == encounter.PhaseEnded {
		return errors.CombatState("resume_combat", "combat has already ended")
	}
	if cs.Phase == encounter.PhaseActive {
		return errors.CombatState("resume_combat", "combat is not paused")
	}

	resumed := now
	cs.ActiveSince = &resumed
	cs.PausedAt = nil
	cs.Phase = encounter.PhaseActive
	return nil
}

// End finishes combat from Active or Paused. The initiative order and the
// round/turn counters are retained for historical display; only the phase
// and timestamps change. The encounter status moves to completed.
func End(enc *encounter.Encounter, now time.Time) error {
	cs := enc.Combat
	if cs == nil || cs.Phase == encounter.PhaseNotStarted {
		return errors.CombatState("end_combat", "combat has not started")
	}
	if cs.Phase == encounter.PhaseEnded {
		return errors.CombatState("end_combat", "combat has already ended")
	}

	if cs.Phase == encounter.PhaseActive {
		accumulate(cs, now)
	}
	ended := now
	cs.EndedAt = &ended
	cs.ActiveSince = nil
	cs.PausedAt = nil
	cs.Phase = encounter.PhaseEnded
	enc.Status = encounter.StatusCompleted
	return nil
}

// NextTurn advances the turn cursor to the next active entry, marking the
// entry it leaves as having acted. The round counter increments exactly
// once per wraparound, never per skipped entry; wrapping also clears every
// hasActed flag for the new round.
func NextTurn(enc *encounter.Encounter) error {
	cs, err := runningState(enc, "next_turn")
	if err != nil {
		return err
	}

	order := cs.InitiativeOrder
	if countActive(order) == 0 {
		return errors.CombatState("next_turn", "no active entries in the initiative order")
	}

	if cur := cs.CurrentEntry(); cur != nil {
		cur.HasActed = true
	}

	i := int(cs.TurnIndex)
	for {
		i++
		if i >= len(order) {
			i = 0
			cs.Round++
			for _, e := range order {
				e.HasActed = false
			}
		}
		if order[i].IsActive {
			cs.TurnIndex = int32(i)
			return nil
		}
	}
}

// PreviousTurn steps the cursor back to the previous active entry, used for
// correcting an accidental advance. Stepping back from the first turn of
// round 1 is rejected. Wrapping under restores the previous round's
// hasActed flags.
func PreviousTurn(enc *encounter.Encounter) error {
	cs, err := runningState(enc, "previous_turn")
	if err != nil {
		return err
	}

	order := cs.InitiativeOrder
	if countActive(order) == 0 {
		return errors.CombatState("previous_turn", "no active entries in the initiative order")
	}

	i := int(cs.TurnIndex)
	for {
		i--
		if i < 0 {
			if cs.Round <= 1 {
				return errors.CombatState("previous_turn", "already at the first turn of round 1")
			}
			cs.Round--
			i = len(order) - 1
			// stepping back into the prior round: everyone had acted
			for _, e := range order {
				e.HasActed = e.IsActive
			}
		}
		if order[i].IsActive {
			order[i].HasActed = false
			cs.TurnIndex = int32(i)
			return nil
		}
	}
}

// SetInitiative records an initiative value for a participant. If combat
// has started, the entry is updated or inserted and the whole order is
// re-sorted; the turn cursor is remapped so it keeps pointing at the same
// participant, not the same numeric slot.
func SetInitiative(enc *encounter.Encounter, participantID string, value int32) error {
	p := enc.Participant(participantID)
	if p == nil {
		return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
	}

	v := value
	p.Initiative = &v

	cs := enc.Combat
	if cs == nil || cs.Phase == encounter.PhaseNotStarted || cs.Phase == encounter.PhaseEnded {
		return nil
	}

	var currentID string
	if cur := cs.CurrentEntry(); cur != nil {
		currentID = cur.ParticipantID
	}

	if entry := cs.Entry(participantID); entry != nil {
		entry.Initiative = value
		entry.Dexterity = p.Dexterity
	} else {
		cs.InitiativeOrder = append(cs.InitiativeOrder, &encounter.InitiativeEntry{
			ParticipantID: participantID,
			Initiative:    value,
			Dexterity:     p.Dexterity,
			IsActive:      true,
		})
	}

	sortOrder(cs.InitiativeOrder)

	if currentID != "" {
		for i, e := range cs.InitiativeOrder {
			if e.ParticipantID == currentID {
				cs.TurnIndex = int32(i)
				break
			}
		}
	}
	return nil
}

// SetEntryActive marks an initiative entry active or inactive (removed or
// dead participants stop consuming turns). The cursor is not moved; the
// next advance skips inactive entries.
func SetEntryActive(enc *encounter.Encounter, participantID string, active bool) error {
	cs := enc.Combat
	if cs == nil || cs.Phase == encounter.PhaseNotStarted {
		return errors.CombatState("set_entry_active", "combat has not started")
	}

	entry := cs.Entry(participantID)
	if entry == nil {
		return errors.ParticipantNotFoundf("participant %s has no initiative entry", participantID)
	}
	entry.IsActive = active
	return nil
}

// ApplyDamage subtracts damage from temporary hit points first, with the
// remainder hitting current hit points. Current hit points may drop below
// zero (overkill) but stay within the storable bound.
func ApplyDamage(enc *encounter.Encounter, participantID string, amount int32) error {
	if amount < 0 {
		return errors.InvalidArgument("damage amount must not be negative")
	}

	p := enc.Participant(participantID)
	if p == nil {
		return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
	}

	absorbed := amount
	if absorbed > p.TempHitPoints {
		absorbed = p.TempHitPoints
	}
	p.TempHitPoints -= absorbed
	p.CurrentHitPoints -= amount - absorbed
	if p.CurrentHitPoints < -maxStorableHP {
		p.CurrentHitPoints = -maxStorableHP
	}
	return nil
}

// ApplyHealing adds to current hit points, capped at the participant's max
func ApplyHealing(enc *encounter.Encounter, participantID string, amount int32) error {
	if amount < 0 {
		return errors.InvalidArgument("healing amount must not be negative")
	}

	p := enc.Participant(participantID)
	if p == nil {
		return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
	}

	p.CurrentHitPoints += amount
	if p.CurrentHitPoints > p.MaxHitPoints {
		p.CurrentHitPoints = p.MaxHitPoints
	}
	return nil
}

// AddCondition adds a condition tag to a participant; idempotent
func AddCondition(enc *encounter.Encounter, participantID, condition string) error {
	p := enc.Participant(participantID)
	if p == nil {
		return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
	}
	p.AddCondition(condition)
	return nil
}

// RemoveCondition removes a condition tag from a participant; idempotent
func RemoveCondition(enc *encounter.Encounter, participantID, condition string) error {
	p := enc.Participant(participantID)
	if p == nil {
		return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
	}
	p.RemoveCondition(condition)
	return nil
}

const maxStorableHP = 999

func runningState(enc *encounter.Encounter, action string) (*encounter.CombatState, error) {
	cs := enc.Combat
	if cs == nil || cs.Phase == encounter.PhaseNotStarted {
		return nil, errors.CombatState(action, "combat has not started")
	}
	switch cs.Phase {
	case encounter.PhasePaused:
		return nil, errors.CombatState(action, "combat is paused")
	case encounter.PhaseEnded:
		return nil, errors.CombatState(action, "combat has already ended")
	}
	return cs, nil
}

func accumulate(cs *encounter.CombatState, now time.Time) {
	if cs.ActiveSince != nil {
		cs.ActiveDuration += now.Sub(*cs.ActiveSince)
	}
}

func countActive(order []*encounter.InitiativeEntry) int {
	n := 0
	for _, e := range order {
		if e.IsActive {
			n++
		}
	}
	return n
}

// sortOrder sorts by initiative descending, ties by dexterity descending.
// The sort is stable so equal rows keep their insertion order.
func sortOrder(order []*encounter.InitiativeEntry) {
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Initiative != order[j].Initiative {
			return order[i].Initiative > order[j].Initiative
		}
		return order[i].Dexterity > order[j].Dexterity
	})
}
