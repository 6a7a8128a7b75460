// Package registry owns the ordered participant list inside one encounter.
//
// Every operation validates against the full current state and either
// applies completely or not at all: a failed bulk add inserts nothing, and
// a failed reorder leaves the stored order untouched.
package registry

import (
	"strconv"
	"strings"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
)

// Field bounds enforced on participants
const (
	MaxNameLength    = 100
	MaxNotesLength   = 500
	MaxConditions    = 20
	MaxConditionLen  = 30
	MaxHitPointBound = 999
	MaxParticipants  = 50
)

// ParticipantUpdate carries a partial merge for Update. Nil fields are left
// unchanged on the target participant.
type ParticipantUpdate struct {
	Name             *string
	Type             *encounter.ParticipantType
	MaxHitPoints     *int32
	CurrentHitPoints *int32
	TempHitPoints    *int32
	ArmorClass       *int32
	Dexterity        *int32
	IsPlayer         *bool
	IsVisible        *bool
	Notes            *string
	Conditions       []string
	Position         *encounter.GridPosition
}

// Add validates the participant and appends it to the end of the list.
// Validation failures enumerate every violated field.
func Add(enc *encounter.Encounter, p *encounter.Participant) error {
	if p == nil {
		return errors.InvalidArgument("participant is required")
	}

	vb := errors.NewValidationBuilder()
	validateParticipant("", p, vb)
	if len(enc.Participants) >= MaxParticipants {
		vb.Fieldf("participants", "must have no more than %d items", MaxParticipants)
	}
	if err := vb.Build(); err != nil {
		return err
	}

	enc.Participants = append(enc.Participants, p)
	return nil
}

// AddBulk validates every participant first; if any fails, the whole batch
// is rejected and zero participants are added.
func AddBulk(enc *encounter.Encounter, participants []*encounter.Participant) error {
	if len(participants) == 0 {
		return errors.InvalidArgument("at least one participant is required")
	}

	vb := errors.NewValidationBuilder()
	for i, p := range participants {
		prefix := indexedPath("participants", i)
		if p == nil {
			vb.RequiredField(prefix)
			continue
		}
		validateParticipant(prefix+".", p, vb)
	}
	if len(enc.Participants)+len(participants) > MaxParticipants {
		vb.Fieldf("participants", "must have no more than %d items", MaxParticipants)
	}
	if err := vb.Build(); err != nil {
		return err
	}

	enc.Participants = append(enc.Participants, participants...)
	return nil
}

// Remove deletes the matching participant from the list
func Remove(enc *encounter.Encounter, participantID string) error {
	for i, p := range enc.Participants {
		if p.ID == participantID {
			enc.Participants = append(enc.Participants[:i], enc.Participants[i+1:]...)
			return nil
		}
	}
	return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
}

// Update merges the allowed fields into the matching participant, then
// re-validates the merged result so an update can never leave a participant
// in a state Add would have rejected.
func Update(enc *encounter.Encounter, participantID string, update *ParticipantUpdate) error {
	if update == nil {
		return errors.InvalidArgument("update is required")
	}

	p := enc.Participant(participantID)
	if p == nil {
		return errors.ParticipantNotFoundf("participant %s is not in encounter %s", participantID, enc.ID)
	}

	merged := *p
	applyUpdate(&merged, update)

	vb := errors.NewValidationBuilder()
	validateParticipant("", &merged, vb)
	if err := vb.Build(); err != nil {
		return err
	}

	*p = merged
	return nil
}

// Reorder replaces the participant list order with the supplied permutation
// of all current participant IDs. The operation is all-or-nothing: any
// malformed, unknown, duplicate, or missing ID rejects the whole request
// without touching the stored order.
func Reorder(enc *encounter.Encounter, orderedIDs []string) error {
	vb := errors.NewValidationBuilder().WithCode(errors.CodeReorderFailed)

	if strings.TrimSpace(enc.ID) == "" {
		vb.Field("encounterId", "is malformed")
	}
	for i, id := range orderedIDs {
		if strings.TrimSpace(id) == "" {
			vb.Fieldf(indexedPath("participantIds", i), "is malformed")
		}
	}
	if err := vb.Build(); err != nil {
		return err
	}

	if len(orderedIDs) != len(enc.Participants) {
		return errors.NewValidationBuilder().
			WithCode(errors.CodeReorderFailed).
			Fieldf("participantIds", "incomplete list: got %d ids, encounter has %d participants",
				len(orderedIDs), len(enc.Participants)).
			Build()
	}

	byID := make(map[string]*encounter.Participant, len(enc.Participants))
	for _, p := range enc.Participants {
		byID[p.ID] = p
	}

	reordered := make([]*encounter.Participant, 0, len(orderedIDs))
	seen := make(map[string]bool, len(orderedIDs))
	for i, id := range orderedIDs {
		if seen[id] {
			return errors.NewValidationBuilder().
				WithCode(errors.CodeReorderFailed).
				Fieldf(indexedPath("participantIds", i), "is duplicated").
				Build()
		}
		seen[id] = true

		p, ok := byID[id]
		if !ok {
			return errors.ParticipantNotFoundf("participant %s is not in encounter %s", id, enc.ID)
		}
		reordered = append(reordered, p)
	}

	enc.Participants = reordered
	return nil
}

func applyUpdate(p *encounter.Participant, u *ParticipantUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Type != nil {
		p.Type = *u.Type
	}
	if u.MaxHitPoints != nil {
		p.MaxHitPoints = *u.MaxHitPoints
	}
	if u.CurrentHitPoints != nil {
		p.CurrentHitPoints = *u.CurrentHitPoints
	}
	if u.TempHitPoints != nil {
		p.TempHitPoints = *u.TempHitPoints
	}
	if u.ArmorClass != nil {
		p.ArmorClass = *u.ArmorClass
	}
	if u.Dexterity != nil {
		p.Dexterity = *u.Dexterity
	}
	if u.IsPlayer != nil {
		p.IsPlayer = *u.IsPlayer
	}
	if u.IsVisible != nil {
		p.IsVisible = *u.IsVisible
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	if u.Conditions != nil {
		p.Conditions = u.Conditions
	}
	if u.Position != nil {
		p.Position = u.Position
	}
}

// validateParticipant records every violated field under the given path
// prefix, so bulk adds report which list entry failed.
func validateParticipant(prefix string, p *encounter.Participant, vb *errors.ValidationBuilder) {
	errors.ValidateRequired(prefix+"name", p.Name, vb)
	errors.ValidateMaxLength(prefix+"name", p.Name, MaxNameLength, vb)
	errors.ValidateEnum(prefix+"type", string(p.Type), encounter.ParticipantTypes(), vb)

	if p.MaxHitPoints < 0 {
		vb.Field(prefix+"maxHitPoints", "must not be negative")
	}
	if p.MaxHitPoints > MaxHitPointBound {
		vb.Fieldf(prefix+"maxHitPoints", "must be no more than %d", MaxHitPointBound)
	}
	// current HP may be negative (overkill) but is still bounded
	errors.ValidateRange(prefix+"currentHitPoints", int(p.CurrentHitPoints),
		-MaxHitPointBound, MaxHitPointBound, vb)
	if p.TempHitPoints < 0 {
		vb.Field(prefix+"tempHitPoints", "must not be negative")
	}
	if p.TempHitPoints > MaxHitPointBound {
		vb.Fieldf(prefix+"tempHitPoints", "must be no more than %d", MaxHitPointBound)
	}
	errors.ValidateRange(prefix+"armorClass", int(p.ArmorClass), 1, 30, vb)
	errors.ValidateRange(prefix+"dexterity", int(p.Dexterity), 1, 30, vb)
	errors.ValidateMaxLength(prefix+"notes", p.Notes, MaxNotesLength, vb)

	if len(p.Conditions) > MaxConditions {
		vb.Fieldf(prefix+"conditions", "must have no more than %d items", MaxConditions)
	}
	for i, c := range p.Conditions {
		errors.ValidateMaxLength(indexedPath(prefix+"conditions", i), c, MaxConditionLen, vb)
	}
}

func indexedPath(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
