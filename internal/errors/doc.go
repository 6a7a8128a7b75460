// Package errors provides the structured error handling used across the
// encounter API.
//
// Every failure surfaced by a repository or orchestrator is an *Error
// carrying a machine-readable Code, a human-readable Message, and optional
// Meta (for example the per-field map produced by a ValidationBuilder, or
// the attempted action of a rejected combat transition).
//
// Creating errors:
//
//	err := errors.EncounterNotFoundf("encounter %s not found", id)
//	err := errors.CombatState("next_turn", "combat has not started")
//
// Accumulating validation failures:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateMaxLength("notes", p.Notes, 500, vb)
//	if p.TempHitPoints < 0 {
//	    vb.Field("tempHitPoints", "must not be negative")
//	}
//	if err := vb.Build(); err != nil {
//	    return nil, err
//	}
//
// Checking error kinds:
//
//	if errors.IsNotFound(err) { ... }
//	if errors.GetCode(err) == errors.CodeCombatState { ... }
//
// The Code maps onto both HTTP status codes and gRPC codes at the service
// boundary, so callers never need to parse message text.
package errors
