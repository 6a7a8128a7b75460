package export

import "github.com/tablewright/encounter-api/internal/entities/encounter"

// SanitizeTemplate turns an export envelope into a reusable template in
// place. Combat progress and per-session participant state are reset so the
// result imports as a fresh encounter: status becomes draft, visibility
// private, combat returns to its not-started shape, and every participant
// comes back at full hit points with no initiative, conditions, or notes.
//
// The envelope is expected to come from a build with ids and personal data
// already redacted; this pass only strips session state.
func SanitizeTemplate(env *Envelope, name, description string) {
	if env == nil {
		return
	}

	env.Encounter.Name = name
	env.Encounter.Description = description
	env.Encounter.Status = string(encounter.StatusDraft)
	env.Encounter.IsPublic = false

	if env.Encounter.CombatState != nil {
		env.Encounter.CombatState = &CombatState{
			Phase: string(encounter.PhaseNotStarted),
		}
	}

	for i := range env.Encounter.Participants {
		p := &env.Encounter.Participants[i]
		p.CurrentHitPoints = p.MaxHitPoints
		p.TempHitPoints = 0
		p.Initiative = nil
		p.Conditions = nil
		p.Notes = ""
	}
}
