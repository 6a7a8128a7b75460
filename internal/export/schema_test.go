package export_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/export"
)

func validTree(t *testing.T) map[string]any {
	t.Helper()
	tree, err := export.DecodeJSON([]byte(`{
		"metadata": {
			"exportedAt": "2026-03-14T12:00:00Z",
			"exportedBy": "user_1",
			"format": "json",
			"version": "1.0"
		},
		"encounter": {
			"name": "Goblin Ambush",
			"description": "Roadside ambush",
			"tags": ["forest"],
			"difficulty": "medium",
			"targetLevel": 3,
			"status": "draft",
			"isPublic": false,
			"settings": {"gridEnabled": true, "gridSize": 20},
			"participants": [
				{
					"id": "part_1",
					"name": "Theren",
					"type": "pc",
					"maxHitPoints": 25,
					"currentHitPoints": 18,
					"tempHitPoints": 3,
					"armorClass": 16,
					"initiative": 17,
					"dexterity": 14,
					"isPlayer": true,
					"isVisible": true,
					"conditions": ["blessed"],
					"position": {"x": 4, "y": 7}
				}
			],
			"combatState": {
				"phase": "active",
				"round": 2,
				"turnIndex": 0,
				"initiativeOrder": [
					{"participantId": "part_1", "initiative": 17, "dexterity": 14,
					 "isActive": true, "hasActed": false}
				]
			},
			"characterSheets": [
				{
					"id": "char_1",
					"name": "Theren",
					"level": 3,
					"abilityScores": {
						"strength": 12, "dexterity": 14, "constitution": 13,
						"intelligence": 10, "wisdom": 15, "charisma": 8
					},
					"maxHitPoints": 25,
					"armorClass": 16,
					"equipment": ["longbow"],
					"spells": ["hunter's mark"]
				}
			]
		}
	}`))
	require.NoError(t, err)
	return tree
}

func encounterOf(tree map[string]any) map[string]any {
	return tree["encounter"].(map[string]any)
}

func firstParticipant(tree map[string]any) map[string]any {
	return encounterOf(tree)["participants"].([]any)[0].(map[string]any)
}

func TestValidateTree_Valid(t *testing.T) {
	assert.NoError(t, export.ValidateTree(validTree(t)))
}

func TestValidateTree_MissingTopLevel(t *testing.T) {
	err := export.ValidateTree(map[string]any{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetCode(err))

	fields := errors.ValidationFields(err)
	assert.Contains(t, fields, "metadata")
	assert.Contains(t, fields, "encounter")
}

func TestValidateTree_EnumeratesEveryViolation(t *testing.T) {
	tree := validTree(t)

	delete(tree["metadata"].(map[string]any), "format")
	enc := encounterOf(tree)
	enc["name"] = strings.Repeat("x", 101)
	enc["status"] = "bogus"

	p := firstParticipant(tree)
	delete(p, "id")
	p["armorClass"] = 99
	p["tempHitPoints"] = -1

	cs := enc["combatState"].(map[string]any)
	cs["phase"] = "warmup"

	err := export.ValidateTree(tree)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetCode(err))

	fields := errors.ValidationFields(err)
	assert.Contains(t, fields, "metadata.format")
	assert.Contains(t, fields, "encounter.name")
	assert.Contains(t, fields, "encounter.status")
	assert.Contains(t, fields, "encounter.participants[0].id")
	assert.Contains(t, fields, "encounter.participants[0].armorClass")
	assert.Contains(t, fields, "encounter.participants[0].tempHitPoints")
	assert.Contains(t, fields, "encounter.combatState.phase")
	assert.Len(t, fields, 7)
}

func TestValidateTree_TagBounds(t *testing.T) {
	tree := validTree(t)
	enc := encounterOf(tree)

	tags := make([]any, 11)
	for i := range tags {
		tags[i] = "tag"
	}
	enc["tags"] = tags

	err := export.ValidateTree(tree)
	require.Error(t, err)
	assert.Contains(t, errors.ValidationFields(err), "encounter.tags")

	enc["tags"] = []any{strings.Repeat("x", 31)}
	err = export.ValidateTree(tree)
	require.Error(t, err)
	assert.Contains(t, errors.ValidationFields(err), "encounter.tags[0]")
}

func TestValidateTree_TooManyParticipants(t *testing.T) {
	tree := validTree(t)
	enc := encounterOf(tree)

	template := firstParticipant(tree)
	crowd := make([]any, 51)
	for i := range crowd {
		crowd[i] = template
	}
	enc["participants"] = crowd

	err := export.ValidateTree(tree)
	require.Error(t, err)
	assert.Contains(t, errors.ValidationFields(err), "encounter.participants")
}

func TestValidateTree_NormalizesCoercedScalars(t *testing.T) {
	tree := validTree(t)

	// the XML reader hands back negative numbers as strings, decimals as
	// floats, and numeric-looking names as integers
	p := firstParticipant(tree)
	p["currentHitPoints"] = "-6"
	p["name"] = int64(42)
	tree["metadata"].(map[string]any)["version"] = float64(1)
	p["isVisible"] = "true"

	require.NoError(t, export.ValidateTree(tree))

	assert.Equal(t, int64(-6), p["currentHitPoints"])
	assert.Equal(t, "42", p["name"])
	assert.Equal(t, "1", tree["metadata"].(map[string]any)["version"])
	assert.Equal(t, true, p["isVisible"])

	env, err := export.FromTree(tree)
	require.NoError(t, err)
	assert.Equal(t, int32(-6), env.Encounter.Participants[0].CurrentHitPoints)
	assert.Equal(t, "42", env.Encounter.Participants[0].Name)
}

func TestValidateTree_EmptyElementParticipants(t *testing.T) {
	tree := validTree(t)
	enc := encounterOf(tree)

	// an XML export of an encounter with no participants reads back as an
	// empty string, not an empty array
	enc["participants"] = ""

	require.NoError(t, export.ValidateTree(tree))

	env, err := export.FromTree(tree)
	require.NoError(t, err)
	assert.Empty(t, env.Encounter.Participants)
}

func TestValidateTree_SheetViolations(t *testing.T) {
	tree := validTree(t)
	sheet := encounterOf(tree)["characterSheets"].([]any)[0].(map[string]any)

	sheet["abilityScores"].(map[string]any)["strength"] = 0
	delete(sheet["abilityScores"].(map[string]any), "charisma")
	sheet["level"] = 25

	spells := make([]any, 501)
	for i := range spells {
		spells[i] = "magic missile"
	}
	sheet["spells"] = spells

	err := export.ValidateTree(tree)
	require.Error(t, err)

	fields := errors.ValidationFields(err)
	assert.Contains(t, fields, "encounter.characterSheets[0].abilityScores.strength")
	assert.Contains(t, fields, "encounter.characterSheets[0].abilityScores.charisma")
	assert.Contains(t, fields, "encounter.characterSheets[0].level")
	assert.Contains(t, fields, "encounter.characterSheets[0].spells")
}

func TestValidateTree_WrongTypes(t *testing.T) {
	tree := validTree(t)
	enc := encounterOf(tree)

	enc["settings"] = "not an object"
	enc["isPublic"] = "maybe"
	firstParticipant(tree)["maxHitPoints"] = "lots"

	err := export.ValidateTree(tree)
	require.Error(t, err)

	fields := errors.ValidationFields(err)
	assert.Contains(t, fields, "encounter.settings")
	assert.Contains(t, fields, "encounter.isPublic")
	assert.Contains(t, fields, "encounter.participants[0].maxHitPoints")
}
