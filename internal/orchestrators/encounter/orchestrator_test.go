package encounter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	entities "github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/orchestrators/encounter"
	"github.com/tablewright/encounter-api/internal/pkg/clock"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
	"github.com/tablewright/encounter-api/internal/registry"
	"github.com/tablewright/encounter-api/internal/repositories/encounters"
)

const (
	ownerID    = "user_1"
	strangerID = "user_2"
)

// scriptedRoller returns queued totals in order
type scriptedRoller struct {
	values []int32
}

func (r *scriptedRoller) Roll(count, size int) (int32, error) {
	if len(r.values) == 0 {
		return 10, nil
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v, nil
}

type OrchestratorTestSuite struct {
	suite.Suite
	svc    encounter.Service
	repo   *encounters.InMemoryRepository
	clock  *clock.Fixed
	roller *scriptedRoller
	ctx    context.Context
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.clock = clock.NewFixed(time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))
	s.repo = encounters.NewInMemory(s.clock)
	s.roller = &scriptedRoller{}
	s.ctx = context.Background()

	svc, err := encounter.NewOrchestrator(&encounter.Config{
		EncounterRepo:    s.repo,
		IDGenerator:      idgen.NewSequential("enc"),
		ParticipantIDGen: idgen.NewSequential("part"),
		DiceRoller:       s.roller,
		Clock:            s.clock,
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *OrchestratorTestSuite) createEncounter() string {
	out, err := s.svc.CreateEncounter(s.ctx, &encounter.CreateEncounterInput{
		OwnerID:     ownerID,
		Name:        "Goblin Ambush",
		Description: "Roadside ambush at dusk",
		Difficulty:  entities.DifficultyMedium,
		TargetLevel: 3,
	})
	s.Require().NoError(err)
	return out.Encounter.ID
}

func (s *OrchestratorTestSuite) spec(name string, hp, ac, dex int32, init *int32) *encounter.ParticipantSpec {
	return &encounter.ParticipantSpec{
		Name:         name,
		Type:         entities.TypeMonster,
		MaxHitPoints: hp,
		ArmorClass:   ac,
		Dexterity:    dex,
		Initiative:   init,
		IsVisible:    true,
	}
}

func int32p(v int32) *int32 {
	return &v
}

func (s *OrchestratorTestSuite) TestCreateEncounter() {
	encID := s.createEncounter()

	got, err := s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)
	s.Equal(entities.StatusDraft, got.Encounter.Status)
	s.Equal("Goblin Ambush", got.Encounter.Name)
	s.Equal(int64(1), got.Encounter.Version)
}

func (s *OrchestratorTestSuite) TestCreateEncounterValidation() {
	_, err := s.svc.CreateEncounter(s.ctx, &encounter.CreateEncounterInput{
		OwnerID:     ownerID,
		Name:        "",
		TargetLevel: 99,
		Settings:    entities.Settings{GridEnabled: true, GridSize: 200},
	})
	s.Require().Error(err)
	s.Equal(errors.CodeValidation, errors.GetCode(err))

	fields := errors.ValidationFields(err)
	s.Contains(fields, "name")
	s.Contains(fields, "targetLevel")
	s.Contains(fields, "settings.gridSize")
}

func (s *OrchestratorTestSuite) TestAddParticipantDefaultsToFullHealth() {
	encID := s.createEncounter()

	out, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participant: s.spec("Goblin", 7, 15, 14, nil),
	})
	s.Require().NoError(err)
	s.Equal("part_1", out.Participant.ID)
	s.Equal(int32(7), out.Participant.CurrentHitPoints)
}

func (s *OrchestratorTestSuite) TestAddParticipantsAllOrNothing() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("Goblin", 7, 15, 14, nil),
			s.spec("", -1, 15, 14, nil),
		},
	})
	s.Require().Error(err)
	s.Equal(errors.CodeValidation, errors.GetCode(err))

	got, err := s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)
	s.Empty(got.Encounter.Participants)
}

func (s *OrchestratorTestSuite) TestOnlyOwnerMayModify() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		EncounterID: encID,
		UserID:      strangerID,
		Participant: s.spec("Goblin", 7, 15, 14, nil),
	})
	s.Require().Error(err)
	s.Equal(errors.CodeInsufficientPerms, errors.GetCode(err))
}

func (s *OrchestratorTestSuite) TestShareGrantsReadOnly() {
	encID := s.createEncounter()

	_, err := s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      strangerID,
	})
	s.Equal(errors.CodeInsufficientPerms, errors.GetCode(err))

	_, err = s.svc.ShareEncounter(s.ctx, &encounter.ShareEncounterInput{
		EncounterID: encID,
		UserID:      ownerID,
		SharedWith:  []string{strangerID},
	})
	s.Require().NoError(err)

	_, err = s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      strangerID,
	})
	s.NoError(err)

	// the share list still doesn't permit writes
	_, err = s.svc.NextTurn(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: strangerID})
	s.Equal(errors.CodeInsufficientPerms, errors.GetCode(err))
}

func (s *OrchestratorTestSuite) TestCombatLifecycle() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("Theren", 25, 16, 14, int32p(18)),
			s.spec("Goblin Boss", 21, 17, 10, int32p(18)),
			s.spec("Goblin", 7, 15, 20, int32p(12)),
		},
	})
	s.Require().NoError(err)

	started, err := s.svc.StartCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	s.Equal(entities.StatusActive, started.Encounter.Status)
	s.Equal(int32(1), started.Encounter.Combat.Round)

	// initiative ties break on dexterity
	order := started.Encounter.Combat.InitiativeOrder
	s.Require().Len(order, 3)
	s.Equal("part_1", order[0].ParticipantID)
	s.Equal("part_2", order[1].ParticipantID)
	s.Equal("part_3", order[2].ParticipantID)

	next, err := s.svc.NextTurn(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	s.Equal(int32(1), next.Encounter.Combat.TurnIndex)
	s.True(next.Encounter.Combat.InitiativeOrder[0].HasActed)

	paused, err := s.svc.PauseCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	s.Equal(entities.PhasePaused, paused.Encounter.Combat.Phase)

	_, err = s.svc.NextTurn(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Equal(errors.CodeCombatState, errors.GetCode(err))

	resumed, err := s.svc.ResumeCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	s.Equal(entities.PhaseActive, resumed.Encounter.Combat.Phase)

	ended, err := s.svc.EndCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	s.Equal(entities.StatusCompleted, ended.Encounter.Status)
	s.Equal(entities.PhaseEnded, ended.Encounter.Combat.Phase)
	s.Len(ended.Encounter.Combat.InitiativeOrder, 3)
}

func (s *OrchestratorTestSuite) TestStartCombatNeedsInitiative() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participant: s.spec("Goblin", 7, 15, 14, nil),
	})
	s.Require().NoError(err)

	_, err = s.svc.StartCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().Error(err)
	s.Equal(errors.CodeCombatState, errors.GetCode(err))
}

func (s *OrchestratorTestSuite) TestRollInitiative() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("Theren", 25, 16, 14, nil), // +2 modifier
			s.spec("Zombie", 22, 8, 6, nil),   // -2 modifier
		},
	})
	s.Require().NoError(err)

	s.roller.values = []int32{15, 7}
	out, err := s.svc.RollInitiative(s.ctx, &encounter.RollInitiativeInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)
	s.Equal(int32(17), out.Rolls["part_1"])
	s.Equal(int32(5), out.Rolls["part_2"])
	s.Equal(int32(17), *out.Encounter.Participant("part_1").Initiative)
	s.Equal(int32(5), *out.Encounter.Participant("part_2").Initiative)
}

func (s *OrchestratorTestSuite) TestRollInitiativeSkipsAlreadyRolled() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("Theren", 25, 16, 10, int32p(19)),
			s.spec("Goblin", 7, 15, 10, nil),
		},
	})
	s.Require().NoError(err)

	s.roller.values = []int32{11}
	out, err := s.svc.RollInitiative(s.ctx, &encounter.RollInitiativeInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)
	s.NotContains(out.Rolls, "part_1")
	s.Equal(int32(11), out.Rolls["part_2"])
	s.Equal(int32(19), *out.Encounter.Participant("part_1").Initiative)
}

func (s *OrchestratorTestSuite) TestSetInitiativeMidCombatFollowsCursor() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("A", 10, 12, 14, int32p(18)),
			s.spec("B", 10, 12, 12, int32p(15)),
			s.spec("C", 10, 12, 10, int32p(12)),
		},
	})
	s.Require().NoError(err)

	_, err = s.svc.StartCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	_, err = s.svc.NextTurn(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)

	// cursor sits on B; boosting C re-sorts but the cursor stays on B
	out, err := s.svc.SetInitiative(s.ctx, &encounter.SetInitiativeInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_3",
		Initiative:    20,
	})
	s.Require().NoError(err)

	cs := out.Encounter.Combat
	s.Equal("part_3", cs.InitiativeOrder[0].ParticipantID)
	s.Equal("part_2", cs.CurrentEntry().ParticipantID)
}

func (s *OrchestratorTestSuite) TestRemoveParticipantMidCombat() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("A", 10, 12, 14, int32p(18)),
			s.spec("B", 10, 12, 12, int32p(15)),
			s.spec("C", 10, 12, 10, int32p(12)),
		},
	})
	s.Require().NoError(err)
	_, err = s.svc.StartCombat(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)

	removed, err := s.svc.RemoveParticipant(s.ctx, &encounter.RemoveParticipantInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_2",
	})
	s.Require().NoError(err)
	s.Nil(removed.Encounter.Participant("part_2"))

	// the initiative row survives, deactivated, and the cursor skips it
	entry := removed.Encounter.Combat.Entry("part_2")
	s.Require().NotNil(entry)
	s.False(entry.IsActive)

	next, err := s.svc.NextTurn(s.ctx, &encounter.CombatInput{EncounterID: encID, UserID: ownerID})
	s.Require().NoError(err)
	s.Equal("part_3", next.Encounter.Combat.CurrentEntry().ParticipantID)
}

func (s *OrchestratorTestSuite) TestReorderParticipants() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipants(s.ctx, &encounter.AddParticipantsInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participants: []*encounter.ParticipantSpec{
			s.spec("A", 10, 12, 14, nil),
			s.spec("B", 10, 12, 12, nil),
			s.spec("C", 10, 12, 10, nil),
		},
	})
	s.Require().NoError(err)

	out, err := s.svc.ReorderParticipants(s.ctx, &encounter.ReorderParticipantsInput{
		EncounterID:    encID,
		UserID:         ownerID,
		ParticipantIDs: []string{"part_3", "part_1", "part_2"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"part_3", "part_1", "part_2"}, out.Encounter.ParticipantIDs())

	// an incomplete list changes nothing
	_, err = s.svc.ReorderParticipants(s.ctx, &encounter.ReorderParticipantsInput{
		EncounterID:    encID,
		UserID:         ownerID,
		ParticipantIDs: []string{"part_1", "part_2"},
	})
	s.Require().Error(err)
	s.Equal(errors.CodeReorderFailed, errors.GetCode(err))

	got, err := s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)
	s.Equal([]string{"part_3", "part_1", "part_2"}, got.Encounter.ParticipantIDs())
}

func (s *OrchestratorTestSuite) TestDamageHealingAndConditions() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participant: &encounter.ParticipantSpec{
			Name:          "Theren",
			Type:          entities.TypePC,
			MaxHitPoints:  25,
			TempHitPoints: 5,
			ArmorClass:    16,
			Dexterity:     14,
			IsVisible:     true,
		},
	})
	s.Require().NoError(err)

	damaged, err := s.svc.ApplyDamage(s.ctx, &encounter.ApplyDamageInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_1",
		Amount:        8,
	})
	s.Require().NoError(err)
	s.Equal(int32(0), damaged.Participant.TempHitPoints)
	s.Equal(int32(22), damaged.Participant.CurrentHitPoints)

	healed, err := s.svc.ApplyHealing(s.ctx, &encounter.ApplyHealingInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_1",
		Amount:        50,
	})
	s.Require().NoError(err)
	s.Equal(int32(25), healed.Participant.CurrentHitPoints)

	tagged, err := s.svc.AddCondition(s.ctx, &encounter.ConditionInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_1",
		Condition:     "poisoned",
	})
	s.Require().NoError(err)
	s.True(tagged.Participant.HasCondition("poisoned"))

	cleared, err := s.svc.RemoveCondition(s.ctx, &encounter.ConditionInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_1",
		Condition:     "poisoned",
	})
	s.Require().NoError(err)
	s.False(cleared.Participant.HasCondition("poisoned"))
}

func (s *OrchestratorTestSuite) TestFailedMutationIsNotPersisted() {
	encID := s.createEncounter()

	_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		EncounterID: encID,
		UserID:      ownerID,
		Participant: s.spec("Goblin", 7, 15, 14, nil),
	})
	s.Require().NoError(err)

	before, err := s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)

	bad := "x"
	_, err = s.svc.UpdateParticipant(s.ctx, &encounter.UpdateParticipantInput{
		EncounterID:   encID,
		UserID:        ownerID,
		ParticipantID: "part_1",
		Update:        &registry.ParticipantUpdate{ArmorClass: int32p(99), Name: &bad},
	})
	s.Require().Error(err)

	after, err := s.svc.GetEncounter(s.ctx, &encounter.GetEncounterInput{
		EncounterID: encID,
		UserID:      ownerID,
	})
	s.Require().NoError(err)
	s.Equal(before.Encounter.Version, after.Encounter.Version)
	s.Equal(int32(15), after.Encounter.Participant("part_1").ArmorClass)
}

func (s *OrchestratorTestSuite) TestUnknownEncounter() {
	_, err := s.svc.NextTurn(s.ctx, &encounter.CombatInput{EncounterID: "enc_nope", UserID: ownerID})
	s.Require().Error(err)
	s.Equal(errors.CodeEncounterNotFound, errors.GetCode(err))
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
