package export_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablewright/encounter-api/internal/export"
)

func templateEnvelope(t *testing.T) *export.Envelope {
	t.Helper()
	env, err := export.Build(buildInput(), &export.Options{
		Format:            export.FormatJSON,
		IncludeIDs:        false,
		StripPersonalData: true,
	})
	require.NoError(t, err)
	return env
}

func TestSanitizeTemplate_ResetsSessionState(t *testing.T) {
	env := templateEnvelope(t)
	export.SanitizeTemplate(env, "Goblin Pack", "Reusable roadside ambush")

	assert.Equal(t, "Goblin Pack", env.Encounter.Name)
	assert.Equal(t, "Reusable roadside ambush", env.Encounter.Description)
	assert.Equal(t, "draft", env.Encounter.Status)
	assert.False(t, env.Encounter.IsPublic)

	require.NotNil(t, env.Encounter.CombatState)
	assert.Equal(t, "not_started", env.Encounter.CombatState.Phase)
	assert.Zero(t, env.Encounter.CombatState.Round)
	assert.Empty(t, env.Encounter.CombatState.InitiativeOrder)
	assert.Empty(t, env.Encounter.CombatState.StartedAt)

	for _, p := range env.Encounter.Participants {
		assert.Equal(t, p.MaxHitPoints, p.CurrentHitPoints)
		assert.Zero(t, p.TempHitPoints)
		assert.Nil(t, p.Initiative)
		assert.Empty(t, p.Conditions)
		assert.Empty(t, p.Notes)
	}
}

func TestSanitizeTemplate_KeepsStatBlocks(t *testing.T) {
	env := templateEnvelope(t)
	export.SanitizeTemplate(env, "Goblin Pack", "")

	require.Len(t, env.Encounter.Participants, 2)
	assert.Equal(t, int32(25), env.Encounter.Participants[0].MaxHitPoints)
	assert.Equal(t, int32(16), env.Encounter.Participants[0].ArmorClass)
	assert.Equal(t, int32(14), env.Encounter.Participants[0].Dexterity)
	assert.Equal(t, "monster", env.Encounter.Participants[1].Type)

	// table settings survive sanitization
	assert.True(t, env.Encounter.Settings.GridEnabled)
	assert.Equal(t, int32(20), env.Encounter.Settings.GridSize)
}

func TestSanitizeTemplate_NilCombatStaysNil(t *testing.T) {
	input := buildInput()
	input.Encounter.Combat = nil
	env, err := export.Build(input, &export.Options{
		Format:            export.FormatJSON,
		IncludeIDs:        false,
		StripPersonalData: true,
	})
	require.NoError(t, err)

	export.SanitizeTemplate(env, "Empty", "")
	assert.Nil(t, env.Encounter.CombatState)
}
