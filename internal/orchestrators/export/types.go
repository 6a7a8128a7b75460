package export

import (
	entities "github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/export"
	"github.com/tablewright/encounter-api/internal/repositories/templates"
)

// PrepareExportInput defines the input for building and serializing an export
type PrepareExportInput struct {
	EncounterID string
	UserID      string
	Format      export.Format

	IncludePrivateNotes    bool
	IncludeCharacterSheets bool
	IncludeIDs             bool
	StripPersonalData      bool
}

// PrepareExportOutput carries the envelope and its serialized form
type PrepareExportOutput struct {
	Envelope    *export.Envelope
	Data        []byte
	ContentType string
}

// ImportEncounterInput defines the input for importing a serialized export
type ImportEncounterInput struct {
	OwnerID string
	Data    []byte
	Format  export.Format

	// CreateMissingCharacters materializes a character record per inlined
	// sheet and links the imported participants to them
	CreateMissingCharacters bool
}

// ImportEncounterOutput carries the newly created encounter
type ImportEncounterOutput struct {
	Encounter *entities.Encounter

	// CreatedCharacterIDs lists characters materialized from sheets
	CreatedCharacterIDs []string
}

// CreateTemplateInput defines the input for deriving a reusable template
type CreateTemplateInput struct {
	EncounterID  string
	UserID       string
	TemplateName string
	Description  string
}

// CreateTemplateOutput carries the stored template
type CreateTemplateOutput struct {
	Template *templates.Template
}

// InstantiateTemplateInput defines the input for creating an encounter from
// a stored template
type InstantiateTemplateInput struct {
	TemplateID string
	UserID     string

	// Name overrides the template's encounter name when non-empty
	Name string
}

// InstantiateTemplateOutput carries the new encounter
type InstantiateTemplateOutput struct {
	Encounter *entities.Encounter
}

// DeleteTemplateInput defines the input for removing a template
type DeleteTemplateInput struct {
	TemplateID string
	UserID     string
}

// DeleteTemplateOutput defines the output for removing a template
type DeleteTemplateOutput struct{}

// ListTemplatesInput defines the input for listing a user's templates
type ListTemplatesInput struct {
	UserID string
}

// ListTemplatesOutput carries the user's templates
type ListTemplatesOutput struct {
	Templates []*templates.Template
}

// CreateShareLinkInput defines the input for minting a share token
type CreateShareLinkInput struct {
	EncounterID string
	UserID      string
	TTLSeconds  int64
}

// CreateShareLinkOutput carries the opaque share token
type CreateShareLinkOutput struct {
	Token     string
	ExpiresAt int64
}
