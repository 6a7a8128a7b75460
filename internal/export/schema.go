package export

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
)

// Structural bounds enforced on inbound envelopes
const (
	maxNameLen        = 100
	maxDescriptionLen = 1000
	maxTags           = 10
	maxTagLen         = 30
	maxParticipants   = 50
	maxSheets         = 50
	maxNotesLen       = 500
	maxConditions     = 20
	maxConditionLen   = 30
	maxEquipment      = 200
	maxSpells         = 500
	hitPointBound     = 999
)

var signedIntPattern = regexp.MustCompile(`^-?\d+$`)

// ValidateTree checks a decoded envelope tree against the structural
// schema. Every failing field path is reported; validation never stops at
// the first violation.
//
// Scalars are normalized in place while validating: the XML reader's type
// coercion turns "-6" into a string and "1.0" into a float, so a field
// that holds a coercible value of the wrong dynamic type is converted to
// the schema's type rather than rejected. After a nil return the tree is
// safe to hand to FromTree.
func ValidateTree(tree map[string]any) error {
	vb := errors.NewValidationBuilder()

	meta := requireObject(tree, "metadata", "metadata", vb)
	if meta != nil {
		validateMetadata(meta, vb)
	}

	enc := requireObject(tree, "encounter", "encounter", vb)
	if enc != nil {
		validateEncounter(enc, vb)
	}

	return vb.Build()
}

func validateMetadata(meta map[string]any, vb *errors.ValidationBuilder) {
	stringField(meta, "exportedAt", "metadata.exportedAt", true, 1, 0, vb)
	stringField(meta, "exportedBy", "metadata.exportedBy", true, 1, 0, vb)
	enumField(meta, "format", "metadata.format",
		[]string{string(FormatJSON), string(FormatXML)}, true, vb)
	stringField(meta, "version", "metadata.version", true, 1, 0, vb)
	stringField(meta, "appVersion", "metadata.appVersion", false, 0, 0, vb)
}

func validateEncounter(enc map[string]any, vb *errors.ValidationBuilder) {
	stringField(enc, "name", "encounter.name", true, 1, maxNameLen, vb)
	stringField(enc, "description", "encounter.description", false, 0, maxDescriptionLen, vb)
	enumField(enc, "difficulty", "encounter.difficulty", encounter.Difficulties(), false, vb)
	intField(enc, "estimatedDuration", "encounter.estimatedDuration", false, 0, 100000, vb)
	intField(enc, "targetLevel", "encounter.targetLevel", false, 1, 20, vb)
	enumField(enc, "status", "encounter.status", encounter.Statuses(), true, vb)
	boolField(enc, "isPublic", "encounter.isPublic", vb)

	if tags, ok := arrayField(enc, "tags", "encounter.tags", false, maxTags, vb); ok {
		for i, tag := range tags {
			path := indexed("encounter.tags", i)
			if s, ok := asString(tag); ok && len(s) > 0 && len(s) <= maxTagLen {
				tags[i] = s
			} else {
				vb.Fieldf(path, "must be a string of 1 to %d characters", maxTagLen)
			}
		}
	}

	if settings, ok := optionalObject(enc, "settings", "encounter.settings", vb); ok {
		boolField(settings, "gridEnabled", "encounter.settings.gridEnabled", vb)
		boolField(settings, "lairActionsEnabled", "encounter.settings.lairActionsEnabled", vb)
		boolField(settings, "trackResources", "encounter.settings.trackResources", vb)
		intField(settings, "gridSize", "encounter.settings.gridSize", false, 1, 50, vb)
	}

	if cs, ok := optionalObject(enc, "combatState", "encounter.combatState", vb); ok {
		validateCombatState(cs, vb)
	}

	participants := requireArray(enc, "participants", "encounter.participants", maxParticipants, vb)
	for i, raw := range participants {
		path := indexed("encounter.participants", i)
		p, ok := raw.(map[string]any)
		if !ok {
			vb.Field(path, "must be an object")
			continue
		}
		validateParticipant(p, path, vb)
	}

	if sheets, ok := arrayField(enc, "characterSheets", "encounter.characterSheets", false, maxSheets, vb); ok {
		for i, raw := range sheets {
			path := indexed("encounter.characterSheets", i)
			sheet, ok := raw.(map[string]any)
			if !ok {
				vb.Field(path, "must be an object")
				continue
			}
			validateSheet(sheet, path, vb)
		}
	}
}

func validateParticipant(p map[string]any, path string, vb *errors.ValidationBuilder) {
	stringField(p, "id", path+".id", true, 1, 0, vb)
	stringField(p, "characterId", path+".characterId", false, 0, 0, vb)
	stringField(p, "name", path+".name", true, 1, maxNameLen, vb)
	enumField(p, "type", path+".type", encounter.ParticipantTypes(), true, vb)
	intField(p, "maxHitPoints", path+".maxHitPoints", true, -hitPointBound, hitPointBound, vb)
	intField(p, "currentHitPoints", path+".currentHitPoints", true, -hitPointBound, hitPointBound, vb)
	intField(p, "tempHitPoints", path+".tempHitPoints", false, 0, hitPointBound, vb)
	intField(p, "armorClass", path+".armorClass", true, 1, 30, vb)
	intField(p, "initiative", path+".initiative", false, -hitPointBound, hitPointBound, vb)
	intField(p, "dexterity", path+".dexterity", false, 1, 30, vb)
	boolField(p, "isPlayer", path+".isPlayer", vb)
	boolField(p, "isVisible", path+".isVisible", vb)
	stringField(p, "notes", path+".notes", false, 0, maxNotesLen, vb)

	if conditions, ok := arrayField(p, "conditions", path+".conditions", false, maxConditions, vb); ok {
		for i, c := range conditions {
			if s, ok := asString(c); ok && len(s) <= maxConditionLen {
				conditions[i] = s
			} else {
				vb.Fieldf(indexed(path+".conditions", i),
					"must be a string of at most %d characters", maxConditionLen)
			}
		}
	}

	if pos, ok := optionalObject(p, "position", path+".position", vb); ok {
		intField(pos, "x", path+".position.x", true, 0, 1000, vb)
		intField(pos, "y", path+".position.y", true, 0, 1000, vb)
	}
}

func validateCombatState(cs map[string]any, vb *errors.ValidationBuilder) {
	enumField(cs, "phase", "encounter.combatState.phase", encounter.Phases(), true, vb)
	intField(cs, "round", "encounter.combatState.round", true, 0, 100000, vb)
	intField(cs, "turnIndex", "encounter.combatState.turnIndex", true, 0, maxParticipants, vb)
	stringField(cs, "startedAt", "encounter.combatState.startedAt", false, 0, 0, vb)
	stringField(cs, "pausedAt", "encounter.combatState.pausedAt", false, 0, 0, vb)
	stringField(cs, "endedAt", "encounter.combatState.endedAt", false, 0, 0, vb)
	intField(cs, "activeDurationSeconds", "encounter.combatState.activeDurationSeconds",
		false, 0, 1<<31, vb)

	entries, ok := arrayField(cs, "initiativeOrder", "encounter.combatState.initiativeOrder",
		false, maxParticipants, vb)
	if !ok {
		return
	}
	for i, raw := range entries {
		path := indexed("encounter.combatState.initiativeOrder", i)
		entry, ok := raw.(map[string]any)
		if !ok {
			vb.Field(path, "must be an object")
			continue
		}
		stringField(entry, "participantId", path+".participantId", true, 1, 0, vb)
		intField(entry, "initiative", path+".initiative", true, -hitPointBound, hitPointBound, vb)
		intField(entry, "dexterity", path+".dexterity", false, 1, 30, vb)
		boolField(entry, "isActive", path+".isActive", vb)
		boolField(entry, "hasActed", path+".hasActed", vb)
		boolField(entry, "isDelayed", path+".isDelayed", vb)
		stringField(entry, "readyAction", path+".readyAction", false, 0, maxNotesLen, vb)
	}
}

func validateSheet(sheet map[string]any, path string, vb *errors.ValidationBuilder) {
	stringField(sheet, "id", path+".id", true, 1, 0, vb)
	stringField(sheet, "name", path+".name", true, 1, maxNameLen, vb)
	stringField(sheet, "race", path+".race", false, 0, maxNameLen, vb)
	stringField(sheet, "class", path+".class", false, 0, maxNameLen, vb)
	intField(sheet, "level", path+".level", false, 1, 20, vb)
	intField(sheet, "maxHitPoints", path+".maxHitPoints", false, -hitPointBound, hitPointBound, vb)
	intField(sheet, "armorClass", path+".armorClass", false, 1, 30, vb)
	intField(sheet, "speed", path+".speed", false, 0, 500, vb)
	stringField(sheet, "backstory", path+".backstory", false, 0, maxDescriptionLen, vb)

	if scores, ok := optionalObject(sheet, "abilityScores", path+".abilityScores", vb); ok {
		for _, ability := range []string{
			"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma",
		} {
			intField(scores, ability, path+".abilityScores."+ability, true, 1, 30, vb)
		}
	}

	if equipment, ok := arrayField(sheet, "equipment", path+".equipment", false, maxEquipment, vb); ok {
		normalizeStringItems(equipment, path+".equipment", vb)
	}
	if spells, ok := arrayField(sheet, "spells", path+".spells", false, maxSpells, vb); ok {
		normalizeStringItems(spells, path+".spells", vb)
	}
}

func normalizeStringItems(items []any, path string, vb *errors.ValidationBuilder) {
	for i, item := range items {
		if s, ok := asString(item); ok {
			items[i] = s
		} else {
			vb.Field(indexed(path, i), "must be a string")
		}
	}
}

// field accessors

func requireObject(parent map[string]any, key, path string, vb *errors.ValidationBuilder) map[string]any {
	v, present := parent[key]
	if !present || v == nil {
		vb.RequiredField(path)
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		vb.Field(path, "must be an object")
		return nil
	}
	return obj
}

func optionalObject(parent map[string]any, key, path string, vb *errors.ValidationBuilder) (map[string]any, bool) {
	v, present := parent[key]
	if !present || v == nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		vb.Field(path, "must be an object")
		return nil, false
	}
	return obj, true
}

func requireArray(parent map[string]any, key, path string, maxItems int, vb *errors.ValidationBuilder) []any {
	v, present := parent[key]
	if !present || v == nil {
		vb.RequiredField(path)
		return nil
	}
	arr, ok := asArray(v)
	if !ok {
		vb.Field(path, "must be an array")
		return nil
	}
	if len(arr) > maxItems {
		vb.Fieldf(path, "must have no more than %d items", maxItems)
		return nil
	}
	parent[key] = arr
	return arr
}

func arrayField(parent map[string]any, key, path string, required bool, maxItems int, vb *errors.ValidationBuilder) ([]any, bool) {
	v, present := parent[key]
	if !present || v == nil {
		if required {
			vb.RequiredField(path)
		}
		return nil, false
	}
	arr, ok := asArray(v)
	if !ok {
		vb.Field(path, "must be an array")
		return nil, false
	}
	if len(arr) > maxItems {
		vb.Fieldf(path, "must have no more than %d items", maxItems)
		return nil, false
	}
	parent[key] = arr
	return arr, true
}

func stringField(parent map[string]any, key, path string, required bool, minLen, maxLen int, vb *errors.ValidationBuilder) {
	v, present := parent[key]
	if !present || v == nil {
		if required {
			vb.RequiredField(path)
		}
		return
	}

	s, ok := asString(v)
	if !ok {
		vb.Field(path, "must be a string")
		return
	}
	parent[key] = s

	if required && minLen > 0 && strings.TrimSpace(s) == "" {
		vb.RequiredField(path)
		return
	}
	if minLen > 0 && len(s) < minLen {
		vb.Fieldf(path, "must be at least %d characters", minLen)
	}
	if maxLen > 0 && len(s) > maxLen {
		vb.Fieldf(path, "must be no more than %d characters", maxLen)
	}
}

func intField(parent map[string]any, key, path string, required bool, minValue, maxValue int64, vb *errors.ValidationBuilder) {
	v, present := parent[key]
	if !present || v == nil {
		if required {
			vb.RequiredField(path)
		}
		return
	}

	n, ok := asInt(v)
	if !ok {
		vb.Field(path, "must be an integer")
		return
	}
	parent[key] = n

	if n < minValue || n > maxValue {
		vb.Fieldf(path, "must be between %d and %d", minValue, maxValue)
	}
}

func boolField(parent map[string]any, key, path string, vb *errors.ValidationBuilder) {
	v, present := parent[key]
	if !present || v == nil {
		return
	}
	b, ok := asBool(v)
	if !ok {
		vb.Field(path, "must be a boolean")
		return
	}
	parent[key] = b
}

func enumField(parent map[string]any, key, path string, allowed []string, required bool, vb *errors.ValidationBuilder) {
	v, present := parent[key]
	if !present || v == nil {
		if required {
			vb.RequiredField(path)
		}
		return
	}

	s, ok := asString(v)
	if !ok {
		vb.Field(path, "must be a string")
		return
	}
	parent[key] = s

	for _, a := range allowed {
		if s == a {
			return
		}
	}
	vb.Fieldf(path, "must be one of: %s", strings.Join(allowed, ", "))
}

// scalar coercions across the two wire formats

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case string:
		if signedIntPattern.MatchString(n) {
			parsed, err := strconv.ParseInt(n, 10, 64)
			return parsed, err == nil
		}
		return 0, false
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		if b == "true" {
			return true, true
		}
		if b == "false" {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case string:
		// the XML reader renders an empty array as an empty element
		if strings.TrimSpace(a) == "" {
			return []any{}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func indexed(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
