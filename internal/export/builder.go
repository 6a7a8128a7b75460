package export

import (
	"time"

	"github.com/tablewright/encounter-api/internal/entities/character"
	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
)

// Options control what an export envelope carries and how it is redacted
type Options struct {
	Format Format

	// IncludePrivateNotes keeps participant notes; otherwise they are
	// redacted to empty strings
	IncludePrivateNotes bool

	// IncludeCharacterSheets inlines a denormalized copy of each referenced
	// character record
	IncludeCharacterSheets bool

	// IncludeIDs keeps real participant and initiative identifiers. When
	// false every identifier is replaced with a fresh opaque temporary id,
	// unique per export and not derived from the real id.
	IncludeIDs bool

	// StripPersonalData forces backstory and private notes empty regardless
	// of the other flags. Used by template creation.
	StripPersonalData bool
}

// BuildInput carries the snapshot sources for one export
type BuildInput struct {
	Encounter *encounter.Encounter

	// Sheets maps character ID to the fetched record. Only consulted when
	// IncludeCharacterSheets is set; missing referenced sheets are skipped.
	Sheets map[string]*character.Character

	ExportedBy string
	ExportedAt time.Time
	AppVersion string

	// TempIDs generates the opaque identifiers used when IncludeIDs is
	// false. Required in that mode only.
	TempIDs idgen.Generator
}

// Build assembles a self-contained envelope from a live encounter. The
// envelope is a deep copy: nothing in it aliases the source encounter, so
// callers may mutate it freely.
func Build(input *BuildInput, opts *Options) (*Envelope, error) {
	if input == nil || input.Encounter == nil {
		return nil, errors.InvalidArgument("encounter is required")
	}
	if opts == nil {
		return nil, errors.InvalidArgument("options are required")
	}
	if opts.Format != FormatJSON && opts.Format != FormatXML {
		return nil, errors.InvalidArgumentf("unsupported export format: %s", opts.Format)
	}
	if !opts.IncludeIDs && input.TempIDs == nil {
		return nil, errors.InvalidArgument("temporary id generator is required when ids are redacted")
	}

	src := input.Encounter

	// identifier remapping tables, only populated in redaction mode
	participantIDs := make(map[string]string, len(src.Participants))
	characterIDs := make(map[string]string)

	mapParticipantID := func(real string) string {
		if opts.IncludeIDs {
			return real
		}
		if mapped, ok := participantIDs[real]; ok {
			return mapped
		}
		mapped := input.TempIDs.Generate()
		participantIDs[real] = mapped
		return mapped
	}
	mapCharacterID := func(real string) string {
		if real == "" {
			return ""
		}
		if opts.IncludeIDs {
			return real
		}
		if mapped, ok := characterIDs[real]; ok {
			return mapped
		}
		mapped := input.TempIDs.Generate()
		characterIDs[real] = mapped
		return mapped
	}

	env := &Envelope{
		Metadata: Metadata{
			ExportedAt: input.ExportedAt.UTC().Format(time.RFC3339),
			ExportedBy: input.ExportedBy,
			Format:     string(opts.Format),
			Version:    SchemaVersion,
			AppVersion: input.AppVersion,
		},
		Encounter: Encounter{
			Name:              src.Name,
			Description:       src.Description,
			Tags:              append([]string(nil), src.Tags...),
			Difficulty:        string(src.Difficulty),
			EstimatedDuration: src.EstimatedDuration,
			TargetLevel:       src.TargetLevel,
			Status:            string(src.Status),
			IsPublic:          src.IsPublic,
			Settings: Settings{
				GridEnabled:        src.Settings.GridEnabled,
				GridSize:           src.Settings.GridSize,
				LairActionsEnabled: src.Settings.LairActionsEnabled,
				TrackResources:     src.Settings.TrackResources,
			},
			Participants: make([]Participant, 0, len(src.Participants)),
		},
	}

	if opts.StripPersonalData {
		env.Metadata.ExportedBy = "redacted"
	}

	for _, p := range src.Participants {
		env.Encounter.Participants = append(env.Encounter.Participants,
			buildParticipant(p, opts, mapParticipantID, mapCharacterID))
	}

	if src.HasCombatStarted() {
		env.Encounter.CombatState = buildCombatState(src.Combat, mapParticipantID)
	}

	if opts.IncludeCharacterSheets {
		env.Encounter.CharacterSheets = buildSheets(src, input.Sheets, opts, mapCharacterID)
	}

	return env, nil
}

func buildParticipant(p *encounter.Participant, opts *Options,
	mapParticipantID, mapCharacterID func(string) string) Participant {

	out := Participant{
		ID:               mapParticipantID(p.ID),
		CharacterID:      mapCharacterID(p.CharacterID),
		Name:             p.Name,
		Type:             string(p.Type),
		MaxHitPoints:     p.MaxHitPoints,
		CurrentHitPoints: p.CurrentHitPoints,
		TempHitPoints:    p.TempHitPoints,
		ArmorClass:       p.ArmorClass,
		Dexterity:        p.Dexterity,
		IsPlayer:         p.IsPlayer,
		IsVisible:        p.IsVisible,
		Conditions:       append([]string(nil), p.Conditions...),
	}

	if p.Initiative != nil {
		init := *p.Initiative
		out.Initiative = &init
	}
	if p.Position != nil {
		out.Position = &GridPosition{X: p.Position.X, Y: p.Position.Y}
	}
	if opts.IncludePrivateNotes && !opts.StripPersonalData {
		out.Notes = p.Notes
	}
	return out
}

func buildCombatState(cs *encounter.CombatState, mapParticipantID func(string) string) *CombatState {
	out := &CombatState{
		Phase:                 string(cs.Phase),
		Round:                 cs.Round,
		TurnIndex:             cs.TurnIndex,
		ActiveDurationSeconds: int64(cs.ActiveDuration.Seconds()),
	}

	for _, e := range cs.InitiativeOrder {
		out.InitiativeOrder = append(out.InitiativeOrder, InitiativeEntry{
			ParticipantID: mapParticipantID(e.ParticipantID),
			Initiative:    e.Initiative,
			Dexterity:     e.Dexterity,
			IsActive:      e.IsActive,
			HasActed:      e.HasActed,
			IsDelayed:     e.IsDelayed,
			ReadyAction:   e.ReadyAction,
		})
	}

	if cs.StartedAt != nil {
		out.StartedAt = cs.StartedAt.UTC().Format(time.RFC3339)
	}
	if cs.PausedAt != nil {
		out.PausedAt = cs.PausedAt.UTC().Format(time.RFC3339)
	}
	if cs.EndedAt != nil {
		out.EndedAt = cs.EndedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func buildSheets(src *encounter.Encounter, sheets map[string]*character.Character,
	opts *Options, mapCharacterID func(string) string) []CharacterSheet {

	var out []CharacterSheet
	seen := make(map[string]bool)

	// one inlined copy per referenced character, in participant order
	for _, p := range src.Participants {
		if p.CharacterID == "" || seen[p.CharacterID] {
			continue
		}
		seen[p.CharacterID] = true

		c, ok := sheets[p.CharacterID]
		if !ok || c == nil {
			continue
		}

		sheet := CharacterSheet{
			ID:    mapCharacterID(c.ID),
			Name:  c.Name,
			Race:  c.Race,
			Class: c.Class,
			Level: c.Level,
			AbilityScores: AbilityScores{
				Strength:     c.AbilityScores.Strength,
				Dexterity:    c.AbilityScores.Dexterity,
				Constitution: c.AbilityScores.Constitution,
				Intelligence: c.AbilityScores.Intelligence,
				Wisdom:       c.AbilityScores.Wisdom,
				Charisma:     c.AbilityScores.Charisma,
			},
			MaxHitPoints: c.MaxHitPoints,
			ArmorClass:   c.ArmorClass,
			Speed:        c.Speed,
			Equipment:    append([]string(nil), c.Equipment...),
			Spells:       append([]string(nil), c.Spells...),
		}
		if !opts.StripPersonalData {
			sheet.Backstory = c.Backstory
		}
		out = append(out, sheet)
	}
	return out
}
