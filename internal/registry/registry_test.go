package registry_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/registry"
)

func validParticipant(id, name string) *encounter.Participant {
	return &encounter.Participant{
		ID:               id,
		CharacterID:      "char_" + id,
		Name:             name,
		Type:             encounter.TypeMonster,
		MaxHitPoints:     25,
		CurrentHitPoints: 25,
		ArmorClass:       13,
		Dexterity:        12,
		IsVisible:        true,
	}
}

func testEncounter(participantIDs ...string) *encounter.Encounter {
	enc := &encounter.Encounter{
		ID:      "enc_1",
		OwnerID: "user_1",
		Name:    "Goblin Ambush",
		Status:  encounter.StatusDraft,
	}
	for _, id := range participantIDs {
		enc.Participants = append(enc.Participants, validParticipant(id, "P "+id))
	}
	return enc
}

func TestAdd_AppendsAsLastEntry(t *testing.T) {
	enc := testEncounter("p1", "p2")

	p := validParticipant("p3", "Bugbear")
	p.MaxHitPoints = 25

	require.NoError(t, registry.Add(enc, p))
	require.Len(t, enc.Participants, 3)
	assert.Equal(t, "p3", enc.Participants[2].ID)
}

func TestAdd_NegativeMaxHitPointsFails(t *testing.T) {
	enc := testEncounter()

	p := validParticipant("p1", "Goblin")
	p.MaxHitPoints = -1

	err := registry.Add(enc, p)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetCode(err))
	assert.Empty(t, enc.Participants)

	fields := errors.ValidationFields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "maxHitPoints")
}

func TestAdd_EnumeratesEveryViolation(t *testing.T) {
	enc := testEncounter()

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	conditions := make([]string, 21)
	for i := range conditions {
		conditions[i] = fmt.Sprintf("cond-%d", i)
	}

	p := &encounter.Participant{
		ID:            "p1",
		Name:          "",
		Type:          "construct",
		MaxHitPoints:  1000,
		TempHitPoints: -5,
		ArmorClass:    0,
		Dexterity:     35,
		Notes:         string(long),
		Conditions:    conditions,
	}

	err := registry.Add(enc, p)
	require.Error(t, err)

	fields := errors.ValidationFields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "maxHitPoints")
	assert.Contains(t, fields, "tempHitPoints")
	assert.Contains(t, fields, "armorClass")
	assert.Contains(t, fields, "dexterity")
	assert.Contains(t, fields, "notes")
	assert.Contains(t, fields, "conditions")
	assert.Empty(t, enc.Participants, "no partial insert on validation failure")
}

func TestAddBulk_AllOrNothing(t *testing.T) {
	enc := testEncounter()

	bad := validParticipant("p2", "Broken")
	bad.TempHitPoints = -1

	err := registry.AddBulk(enc, []*encounter.Participant{
		validParticipant("p1", "Goblin"),
		bad,
	})
	require.Error(t, err)
	assert.Empty(t, enc.Participants, "batch with one invalid entry adds nothing")

	fields := errors.ValidationFields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "participants[1].tempHitPoints")

	require.NoError(t, registry.AddBulk(enc, []*encounter.Participant{
		validParticipant("p1", "Goblin"),
		validParticipant("p2", "Hobgoblin"),
	}))
	assert.Len(t, enc.Participants, 2)
}

func TestRemove(t *testing.T) {
	enc := testEncounter("p1", "p2", "p3")

	require.NoError(t, registry.Remove(enc, "p2"))
	assert.Equal(t, []string{"p1", "p3"}, enc.ParticipantIDs())

	err := registry.Remove(enc, "p2")
	require.Error(t, err)
	assert.Equal(t, errors.CodeParticipantNotFound, errors.GetCode(err))
}

func TestUpdate_MergesOnlyProvidedFields(t *testing.T) {
	enc := testEncounter("p1")

	name := "Renamed"
	hp := int32(10)
	require.NoError(t, registry.Update(enc, "p1", &registry.ParticipantUpdate{
		Name:             &name,
		CurrentHitPoints: &hp,
	}))

	p := enc.Participant("p1")
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, int32(10), p.CurrentHitPoints)
	assert.Equal(t, int32(25), p.MaxHitPoints, "unset fields untouched")
}

func TestUpdate_RejectsInvalidMergeResult(t *testing.T) {
	enc := testEncounter("p1")

	bad := int32(-3)
	err := registry.Update(enc, "p1", &registry.ParticipantUpdate{TempHitPoints: &bad})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetCode(err))
	assert.Equal(t, int32(0), enc.Participant("p1").TempHitPoints)
}

func TestUpdate_NotFound(t *testing.T) {
	enc := testEncounter("p1")
	err := registry.Update(enc, "ghost", &registry.ParticipantUpdate{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeParticipantNotFound, errors.GetCode(err))
}

func TestReorder_AppliesPermutation(t *testing.T) {
	enc := testEncounter("p1", "p2", "p3")

	permutations := [][]string{
		{"p1", "p2", "p3"},
		{"p3", "p1", "p2"},
		{"p2", "p3", "p1"},
		{"p3", "p2", "p1"},
	}
	for _, perm := range permutations {
		require.NoError(t, registry.Reorder(enc, perm))
		assert.Equal(t, perm, enc.ParticipantIDs())
	}
}

func TestReorder_DoesNotMutateParticipantData(t *testing.T) {
	enc := testEncounter("p1", "p2")
	before := *enc.Participant("p1")

	require.NoError(t, registry.Reorder(enc, []string{"p2", "p1"}))
	assert.Equal(t, before, *enc.Participant("p1"))
}

func TestReorder_Rejections(t *testing.T) {
	testCases := []struct {
		name     string
		ids      []string
		wantCode errors.Code
	}{
		{"incomplete list", []string{"p1", "p2"}, errors.CodeReorderFailed},
		{"extra id", []string{"p1", "p2", "p3", "p4"}, errors.CodeReorderFailed},
		{"unknown id", []string{"p1", "p2", "ghost"}, errors.CodeParticipantNotFound},
		{"duplicate id", []string{"p1", "p2", "p2"}, errors.CodeReorderFailed},
		{"malformed id", []string{"p1", "p2", "  "}, errors.CodeReorderFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc := testEncounter("p1", "p2", "p3")
			err := registry.Reorder(enc, tc.ids)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, errors.GetCode(err))
			assert.Equal(t, []string{"p1", "p2", "p3"}, enc.ParticipantIDs(),
				"failed reorder must not mutate the stored list")
		})
	}
}

func TestReorder_MalformedEncounterID(t *testing.T) {
	enc := testEncounter("p1")
	enc.ID = " "

	err := registry.Reorder(enc, []string{"p1"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeReorderFailed, errors.GetCode(err))
	fields := errors.ValidationFields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "encounterId")
}
