// Package export implements the encounter export envelope, its JSON and XML
// wire codecs, the structural import schema, and the template sanitizer.
package export

// Format identifies a wire format for an export
type Format string

// Supported wire formats
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// SchemaVersion is the structural schema version stamped into envelopes
const SchemaVersion = "1.0"

// Envelope is a self-contained, redaction-aware snapshot of one encounter.
// It owns no live references: mutating it never affects the source
// encounter. Timestamps are RFC3339 strings so both wire formats carry them
// identically.
type Envelope struct {
	Metadata  Metadata  `json:"metadata"`
	Encounter Encounter `json:"encounter"`
}

// Metadata describes the export itself
type Metadata struct {
	ExportedAt string `json:"exportedAt"`
	ExportedBy string `json:"exportedBy"`
	Format     string `json:"format"`
	Version    string `json:"version"`
	AppVersion string `json:"appVersion,omitempty"`
}

// Encounter is the denormalized encounter copy inside an envelope
type Encounter struct {
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	Difficulty        string           `json:"difficulty,omitempty"`
	EstimatedDuration int32            `json:"estimatedDuration,omitempty"`
	TargetLevel       int32            `json:"targetLevel,omitempty"`
	Status            string           `json:"status"`
	IsPublic          bool             `json:"isPublic"`
	Settings          Settings         `json:"settings"`
	CombatState       *CombatState     `json:"combatState,omitempty"`
	Participants      []Participant    `json:"participants"`
	CharacterSheets   []CharacterSheet `json:"characterSheets,omitempty"`
}

// Settings mirrors the per-encounter table toggles
type Settings struct {
	GridEnabled        bool  `json:"gridEnabled"`
	GridSize           int32 `json:"gridSize,omitempty"`
	LairActionsEnabled bool  `json:"lairActionsEnabled"`
	TrackResources     bool  `json:"trackResources"`
}

// Participant is one denormalized combatant row
type Participant struct {
	ID               string        `json:"id"`
	CharacterID      string        `json:"characterId,omitempty"`
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	MaxHitPoints     int32         `json:"maxHitPoints"`
	CurrentHitPoints int32         `json:"currentHitPoints"`
	TempHitPoints    int32         `json:"tempHitPoints"`
	ArmorClass       int32         `json:"armorClass"`
	Initiative       *int32        `json:"initiative,omitempty"`
	Dexterity        int32         `json:"dexterity"`
	IsPlayer         bool          `json:"isPlayer"`
	IsVisible        bool          `json:"isVisible"`
	Notes            string        `json:"notes,omitempty"`
	Conditions       []string      `json:"conditions,omitempty"`
	Position         *GridPosition `json:"position,omitempty"`
}

// GridPosition is an optional grid location
type GridPosition struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// CombatState is the denormalized combat progress, present only when combat
// has ever been started on the source encounter
type CombatState struct {
	Phase                 string            `json:"phase"`
	Round                 int32             `json:"round"`
	TurnIndex             int32             `json:"turnIndex"`
	InitiativeOrder       []InitiativeEntry `json:"initiativeOrder,omitempty"`
	StartedAt             string            `json:"startedAt,omitempty"`
	PausedAt              string            `json:"pausedAt,omitempty"`
	EndedAt               string            `json:"endedAt,omitempty"`
	ActiveDurationSeconds int64             `json:"activeDurationSeconds,omitempty"`
}

// InitiativeEntry is one turn-order row
type InitiativeEntry struct {
	ParticipantID string `json:"participantId"`
	Initiative    int32  `json:"initiative"`
	Dexterity     int32  `json:"dexterity"`
	IsActive      bool   `json:"isActive"`
	HasActed      bool   `json:"hasActed"`
	IsDelayed     bool   `json:"isDelayed,omitempty"`
	ReadyAction   string `json:"readyAction,omitempty"`
}

// AbilityScores are the six raw scores of an inlined sheet
type AbilityScores struct {
	Strength     int32 `json:"strength"`
	Dexterity    int32 `json:"dexterity"`
	Constitution int32 `json:"constitution"`
	Intelligence int32 `json:"intelligence"`
	Wisdom       int32 `json:"wisdom"`
	Charisma     int32 `json:"charisma"`
}

// CharacterSheet is an inlined character record, included only when the
// export requests it
type CharacterSheet struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Race          string        `json:"race,omitempty"`
	Class         string        `json:"class,omitempty"`
	Level         int32         `json:"level"`
	AbilityScores AbilityScores `json:"abilityScores"`
	MaxHitPoints  int32         `json:"maxHitPoints"`
	ArmorClass    int32         `json:"armorClass"`
	Speed         int32         `json:"speed,omitempty"`
	Equipment     []string      `json:"equipment,omitempty"`
	Spells        []string      `json:"spells,omitempty"`
	Backstory     string        `json:"backstory,omitempty"`
}
