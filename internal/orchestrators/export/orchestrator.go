// Package export implements the export orchestrator: permission-guarded
// envelope building, serialization, import, templates, and share links.
package export

//go:generate mockgen -destination=mock/mock_service.go -package=exportmock github.com/tablewright/encounter-api/internal/orchestrators/export Service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tablewright/encounter-api/internal/entities/character"
	entities "github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/export"
	"github.com/tablewright/encounter-api/internal/permissions"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
	"github.com/tablewright/encounter-api/internal/repositories/characters"
	"github.com/tablewright/encounter-api/internal/repositories/encounters"
	"github.com/tablewright/encounter-api/internal/repositories/templates"
	"github.com/tablewright/encounter-api/internal/sharelink"
)

// DefaultShareTTL applies when a share link request carries no TTL
const DefaultShareTTL = 7 * 24 * time.Hour

// Service defines the interface for export, import, and template operations
type Service interface {
	// PrepareExport builds a permission-checked envelope and serializes it
	PrepareExport(ctx context.Context, input *PrepareExportInput) (*PrepareExportOutput, error)

	// ImportEncounter parses, validates, and materializes an export as a
	// brand new encounter owned by the caller
	ImportEncounter(ctx context.Context, input *ImportEncounterInput) (*ImportEncounterOutput, error)

	// CreateTemplate derives a sanitized, reusable template from an encounter
	CreateTemplate(ctx context.Context, input *CreateTemplateInput) (*CreateTemplateOutput, error)

	// InstantiateTemplate creates a fresh encounter from a stored template
	InstantiateTemplate(ctx context.Context, input *InstantiateTemplateInput) (*InstantiateTemplateOutput, error)

	// DeleteTemplate removes a template the user owns
	DeleteTemplate(ctx context.Context, input *DeleteTemplateInput) (*DeleteTemplateOutput, error)

	// ListTemplates lists the user's stored templates
	ListTemplates(ctx context.Context, input *ListTemplatesInput) (*ListTemplatesOutput, error)

	// CreateShareLink mints an expiring opaque token for an encounter
	CreateShareLink(ctx context.Context, input *CreateShareLinkInput) (*CreateShareLinkOutput, error)
}

// Config holds the dependencies for the export orchestrator
type Config struct {
	EncounterRepo encounters.Repository
	CharacterRepo characters.Repository
	TemplateRepo  templates.Repository

	// IDGenerator mints encounter IDs for imports
	IDGenerator idgen.Generator

	// ParticipantIDGen mints participant IDs for imports
	ParticipantIDGen idgen.Generator

	// CharacterIDGen mints character IDs for createMissingCharacters
	CharacterIDGen idgen.Generator

	// TempIDGen mints the opaque identifiers used by redacted exports
	TempIDGen idgen.Generator

	// Clock defaults to the real clock
	Clock clock.Clock

	// AppVersion is stamped into export metadata
	AppVersion string
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.EncounterRepo == nil {
		vb.RequiredField("EncounterRepo")
	}
	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.TemplateRepo == nil {
		vb.RequiredField("TemplateRepo")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.ParticipantIDGen == nil {
		vb.RequiredField("ParticipantIDGen")
	}
	if c.CharacterIDGen == nil {
		vb.RequiredField("CharacterIDGen")
	}
	if c.TempIDGen == nil {
		vb.RequiredField("TempIDGen")
	}

	return vb.Build()
}

type orchestrator struct {
	encounterRepo encounters.Repository
	characterRepo characters.Repository
	templateRepo  templates.Repository
	idGen         idgen.Generator
	participantID idgen.Generator
	characterID   idgen.Generator
	tempID        idgen.Generator
	clock         clock.Clock
	appVersion    string
}

// NewOrchestrator creates a new export orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &orchestrator{
		encounterRepo: cfg.EncounterRepo,
		characterRepo: cfg.CharacterRepo,
		templateRepo:  cfg.TemplateRepo,
		idGen:         cfg.IDGenerator,
		participantID: cfg.ParticipantIDGen,
		characterID:   cfg.CharacterIDGen,
		tempID:        cfg.TempIDGen,
		clock:         c,
		appVersion:    cfg.AppVersion,
	}, nil
}

func (o *orchestrator) PrepareExport(
	ctx context.Context,
	input *PrepareExportInput,
) (*PrepareExportOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	env, err := o.buildEnvelope(ctx, input)
	if err != nil {
		return nil, err
	}

	var data []byte
	var contentType string
	switch input.Format {
	case export.FormatJSON:
		data, err = export.EncodeJSON(env)
		contentType = "application/json"
	case export.FormatXML:
		data, err = export.EncodeXML(env)
		contentType = "application/xml"
	default:
		return nil, errors.InvalidArgumentf("unsupported export format: %s", input.Format)
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "export prepared",
		"encounter_id", input.EncounterID,
		"user_id", input.UserID,
		"format", string(input.Format),
		"redacted_ids", !input.IncludeIDs)

	return &PrepareExportOutput{Envelope: env, Data: data, ContentType: contentType}, nil
}

// buildEnvelope runs the guard, gathers sheets, and assembles the envelope.
// The permission check runs before any participant or character data is read.
func (o *orchestrator) buildEnvelope(
	ctx context.Context,
	input *PrepareExportInput,
) (*export.Envelope, error) {
	got, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: input.EncounterID})
	if err != nil {
		return nil, err
	}
	enc := got.Encounter

	if err := permissions.CanExport(enc, input.UserID); err != nil {
		return nil, err
	}

	var sheets map[string]*character.Character
	if input.IncludeCharacterSheets {
		sheets, err = o.fetchSheets(ctx, enc)
		if err != nil {
			return nil, err
		}
	}

	return export.Build(&export.BuildInput{
		Encounter:  enc,
		Sheets:     sheets,
		ExportedBy: input.UserID,
		ExportedAt: o.clock.Now(),
		AppVersion: o.appVersion,
		TempIDs:    o.tempID,
	}, &export.Options{
		Format:                 input.Format,
		IncludePrivateNotes:    input.IncludePrivateNotes,
		IncludeCharacterSheets: input.IncludeCharacterSheets,
		IncludeIDs:             input.IncludeIDs,
		StripPersonalData:      input.StripPersonalData,
	})
}

// fetchSheets loads each referenced character once. Dangling references are
// skipped rather than failing the export.
func (o *orchestrator) fetchSheets(
	ctx context.Context,
	enc *entities.Encounter,
) (map[string]*character.Character, error) {
	sheets := make(map[string]*character.Character)
	for _, p := range enc.Participants {
		if p.CharacterID == "" {
			continue
		}
		if _, done := sheets[p.CharacterID]; done {
			continue
		}

		got, err := o.characterRepo.Get(ctx, characters.GetInput{ID: p.CharacterID})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "referenced character missing, skipping sheet",
					"encounter_id", enc.ID,
					"character_id", p.CharacterID)
				continue
			}
			return nil, err
		}
		sheets[p.CharacterID] = got.Character
	}
	return sheets, nil
}

func (o *orchestrator) ImportEncounter(
	ctx context.Context,
	input *ImportEncounterInput,
) (*ImportEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument("owner ID is required")
	}
	if len(input.Data) == 0 {
		return nil, errors.InvalidFormat("import payload is empty")
	}

	var tree map[string]any
	var err error
	switch input.Format {
	case export.FormatJSON:
		tree, err = export.DecodeJSON(input.Data)
	case export.FormatXML:
		tree, err = export.DecodeXML(input.Data)
	default:
		return nil, errors.InvalidArgumentf("unsupported import format: %s", input.Format)
	}
	if err != nil {
		return nil, err
	}

	if err := export.ValidateTree(tree); err != nil {
		return nil, err
	}
	env, err := export.FromTree(tree)
	if err != nil {
		return nil, err
	}

	// map envelope character ids to real records
	charIDs := make(map[string]string)
	var created []string
	if input.CreateMissingCharacters {
		for i := range env.Encounter.CharacterSheets {
			sheet := &env.Encounter.CharacterSheets[i]
			c := characterFromSheet(sheet, input.OwnerID, o.characterID.Generate())
			if _, err := o.characterRepo.Create(ctx, characters.CreateInput{Character: c}); err != nil {
				return nil, err
			}
			charIDs[sheet.ID] = c.ID
			created = append(created, c.ID)
		}
	}

	enc := o.materialize(env, input.OwnerID, "", charIDs)
	out, err := o.encounterRepo.Create(ctx, encounters.CreateInput{Encounter: enc})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "encounter imported",
		"encounter_id", out.Encounter.ID,
		"owner_id", input.OwnerID,
		"participants", len(out.Encounter.Participants),
		"characters_created", len(created))

	return &ImportEncounterOutput{Encounter: out.Encounter, CreatedCharacterIDs: created}, nil
}

func (o *orchestrator) CreateTemplate(
	ctx context.Context,
	input *CreateTemplateInput,
) (*CreateTemplateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.TemplateName == "" {
		return nil, errors.InvalidArgument("template name is required")
	}

	env, err := o.buildEnvelope(ctx, &PrepareExportInput{
		EncounterID:            input.EncounterID,
		UserID:                 input.UserID,
		Format:                 export.FormatJSON,
		IncludePrivateNotes:    false,
		IncludeCharacterSheets: false,
		IncludeIDs:             false,
		StripPersonalData:      true,
	})
	if err != nil {
		return nil, err
	}

	export.SanitizeTemplate(env, input.TemplateName, input.Description)

	added, err := o.templateRepo.Add(ctx, templates.AddInput{
		OwnerID:  input.UserID,
		Name:     input.TemplateName,
		Envelope: env,
	})
	if err != nil {
		return nil, err
	}

	return &CreateTemplateOutput{Template: added.Template}, nil
}

func (o *orchestrator) InstantiateTemplate(
	ctx context.Context,
	input *InstantiateTemplateInput,
) (*InstantiateTemplateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	found, err := o.templateRepo.Find(ctx, templates.FindInput{ID: input.TemplateID})
	if err != nil {
		return nil, err
	}
	if found.Template.OwnerID != input.UserID {
		return nil, errors.InsufficientPermissions("only the owner may instantiate the template").
			WithMeta("template_id", input.TemplateID).
			WithMeta("user_id", input.UserID)
	}

	enc := o.materialize(found.Template.Envelope, input.UserID, input.Name, nil)
	out, err := o.encounterRepo.Create(ctx, encounters.CreateInput{Encounter: enc})
	if err != nil {
		return nil, err
	}

	return &InstantiateTemplateOutput{Encounter: out.Encounter}, nil
}

func (o *orchestrator) DeleteTemplate(
	ctx context.Context,
	input *DeleteTemplateInput,
) (*DeleteTemplateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	found, err := o.templateRepo.Find(ctx, templates.FindInput{ID: input.TemplateID})
	if err != nil {
		return nil, err
	}
	if found.Template.OwnerID != input.UserID {
		return nil, errors.InsufficientPermissions("only the owner may delete the template").
			WithMeta("template_id", input.TemplateID).
			WithMeta("user_id", input.UserID)
	}

	if _, err := o.templateRepo.Remove(ctx, templates.RemoveInput{ID: input.TemplateID}); err != nil {
		return nil, err
	}
	return &DeleteTemplateOutput{}, nil
}

func (o *orchestrator) ListTemplates(
	ctx context.Context,
	input *ListTemplatesInput,
) (*ListTemplatesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	list, err := o.templateRepo.ListByOwnerID(ctx, templates.ListByOwnerIDInput{OwnerID: input.UserID})
	if err != nil {
		return nil, err
	}
	return &ListTemplatesOutput{Templates: list.Templates}, nil
}

func (o *orchestrator) CreateShareLink(
	ctx context.Context,
	input *CreateShareLinkInput,
) (*CreateShareLinkOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	got, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: input.EncounterID})
	if err != nil {
		return nil, err
	}
	if err := permissions.CanExport(got.Encounter, input.UserID); err != nil {
		return nil, err
	}

	ttl := DefaultShareTTL
	if input.TTLSeconds > 0 {
		ttl = time.Duration(input.TTLSeconds) * time.Second
	}

	now := o.clock.Now()
	token, err := sharelink.NewToken(input.EncounterID, input.UserID, ttl, now)
	if err != nil {
		return nil, err
	}

	return &CreateShareLinkOutput{
		Token:     token,
		ExpiresAt: now.Add(ttl).Unix(),
	}, nil
}

// materialize turns an envelope into a brand new encounter aggregate. Every
// identifier is freshly generated; combat progress never carries over and
// the copy starts as a private draft.
func (o *orchestrator) materialize(
	env *export.Envelope,
	ownerID, nameOverride string,
	charIDs map[string]string,
) *entities.Encounter {
	src := &env.Encounter

	name := src.Name
	if nameOverride != "" {
		name = nameOverride
	}

	enc := &entities.Encounter{
		ID:                o.idGen.Generate(),
		OwnerID:           ownerID,
		Name:              name,
		Description:       src.Description,
		Tags:              append([]string(nil), src.Tags...),
		Difficulty:        entities.Difficulty(src.Difficulty),
		TargetLevel:       src.TargetLevel,
		EstimatedDuration: src.EstimatedDuration,
		Status:            entities.StatusDraft,
		IsPublic:          false,
		Settings: entities.Settings{
			GridEnabled:        src.Settings.GridEnabled,
			GridSize:           src.Settings.GridSize,
			LairActionsEnabled: src.Settings.LairActionsEnabled,
			TrackResources:     src.Settings.TrackResources,
		},
		Participants: make([]*entities.Participant, 0, len(src.Participants)),
	}

	for i := range src.Participants {
		sp := &src.Participants[i]

		dex := sp.Dexterity
		if dex == 0 {
			dex = 10
		}

		// An unmapped character reference gets a placeholder id so the
		// participant still reads as character-backed after import.
		charID := ""
		if sp.CharacterID != "" {
			if mapped, ok := charIDs[sp.CharacterID]; ok {
				charID = mapped
			} else {
				charID = o.characterID.Generate()
			}
		}

		p := &entities.Participant{
			ID:               o.participantID.Generate(),
			CharacterID:      charID,
			Name:             sp.Name,
			Type:             entities.ParticipantType(sp.Type),
			MaxHitPoints:     sp.MaxHitPoints,
			CurrentHitPoints: sp.CurrentHitPoints,
			TempHitPoints:    sp.TempHitPoints,
			ArmorClass:       sp.ArmorClass,
			Dexterity:        dex,
			IsPlayer:         sp.IsPlayer,
			IsVisible:        sp.IsVisible,
			Notes:            sp.Notes,
			Conditions:       append([]string(nil), sp.Conditions...),
		}
		if sp.Initiative != nil {
			init := *sp.Initiative
			p.Initiative = &init
		}
		if sp.Position != nil {
			p.Position = &entities.GridPosition{X: sp.Position.X, Y: sp.Position.Y}
		}
		enc.Participants = append(enc.Participants, p)
	}

	return enc
}

func characterFromSheet(sheet *export.CharacterSheet, ownerID, id string) *character.Character {
	return &character.Character{
		ID:      id,
		OwnerID: ownerID,
		Name:    sheet.Name,
		Race:    sheet.Race,
		Class:   sheet.Class,
		Level:   sheet.Level,
		AbilityScores: character.AbilityScores{
			Strength:     sheet.AbilityScores.Strength,
			Dexterity:    sheet.AbilityScores.Dexterity,
			Constitution: sheet.AbilityScores.Constitution,
			Intelligence: sheet.AbilityScores.Intelligence,
			Wisdom:       sheet.AbilityScores.Wisdom,
			Charisma:     sheet.AbilityScores.Charisma,
		},
		MaxHitPoints: sheet.MaxHitPoints,
		ArmorClass:   sheet.ArmorClass,
		Speed:        sheet.Speed,
		Equipment:    append([]string(nil), sheet.Equipment...),
		Spells:       append([]string(nil), sheet.Spells...),
		Backstory:    sheet.Backstory,
	}
}
