// Package character implements the character sheet entity referenced by
// encounter participants.
//
// NOTE: This is a data-only struct. Derived statistics (ability modifiers,
// carrying capacity, spell slots) are computed elsewhere and are out of
// scope for this subsystem; participants snapshot the combat-relevant
// numbers they need.
package character

// AbilityScores holds the six raw ability scores (1-30)
type AbilityScores struct {
	Strength     int32
	Dexterity    int32
	Constitution int32
	Intelligence int32
	Wisdom       int32
	Charisma     int32
}

// Character is a character record owned by a user. Encounter participants
// reference it by ID; exports may inline a denormalized copy.
type Character struct {
	ID      string
	OwnerID string
	Name    string
	Race    string
	Class   string
	Level   int32

	AbilityScores AbilityScores

	MaxHitPoints int32
	ArmorClass   int32
	Speed        int32

	Equipment []string
	Spells    []string

	// Backstory is personal data and is stripped from sanitized exports
	Backstory string

	CreatedAt int64
	UpdatedAt int64
}
