package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

type escalationFixture struct {
	store     *memAlertStore
	directory *fakeDirectory
	clock     *fakeClock
	engine    *EscalationEngine

	teamID    uuid.UUID
	leadID    uuid.UUID
	managerID uuid.UUID
	riskID    uuid.UUID
	analystID uuid.UUID
}

// newEscalationFixture builds a three-level hierarchy: analyst -> team
// lead -> manager, plus a risk department reviewer.
func newEscalationFixture(t *testing.T) *escalationFixture {
	t.Helper()
	f := &escalationFixture{
		store:     newMemAlertStore(),
		directory: newFakeDirectory(),
		clock:     newFakeClock(),
	}

	f.managerID = f.directory.addUser(compliance.OrganizationUser{
		Email: "manager@bank.test", Department: compliance.DepartmentCompliance,
		EscalationLevel: 2, MaxWorkload: 20, IsActive: true,
	})
	f.leadID = f.directory.addUser(compliance.OrganizationUser{
		Email: "lead@bank.test", Department: compliance.DepartmentCompliance,
		EscalationLevel: 1, ManagerID: &f.managerID, MaxWorkload: 15, IsActive: true,
	})
	f.riskID = f.directory.addUser(compliance.OrganizationUser{
		Email: "risk@bank.test", Department: compliance.DepartmentRisk,
		EscalationLevel: 2, MaxWorkload: 20, IsActive: true,
	})

	team := compliance.Team{
		ID: uuid.New(), Name: "Screening", Department: compliance.DepartmentCompliance,
		TeamLeadID: &f.leadID, IsActive: true,
	}
	f.teamID = f.directory.addTeam(team)

	f.analystID = f.directory.addUser(compliance.OrganizationUser{
		Email: "analyst@bank.test", Department: compliance.DepartmentCompliance,
		TeamID: &f.teamID, ManagerID: &f.leadID, MaxWorkload: 10, IsActive: true,
		CurrentWorkload: 1,
	})

	f.engine = NewEscalationEngine(f.store, f.directory, DefaultSLAConfig(), f.clock, zap.NewNop(), nil)
	return f
}

func (f *escalationFixture) overdueAlert(t *testing.T, level int, assignee uuid.UUID) *compliance.Alert {
	t.Helper()
	due := f.clock.Now().Add(-time.Hour)
	alert := &compliance.Alert{
		ID:              uuid.New(),
		AlertType:       compliance.AlertTypeSanctions,
		Status:          compliance.StatusOpen,
		WorkflowStatus:  compliance.WorkflowPendingReview,
		RiskLevel:       compliance.RiskLevelCritical,
		EscalationLevel: level,
		AssignedTo:      &assignee,
		CurrentReviewer: &assignee,
		TeamID:          &f.teamID,
		DueDate:         &due,
		Version:         1,
		CreatedAt:       f.clock.Now().Add(-3 * time.Hour),
	}
	require.NoError(t, f.store.CreateAlert(context.Background(), alert))
	return alert
}

func TestEscalateLevelZeroToTeamLead(t *testing.T) {
	f := newEscalationFixture(t)
	alert := f.overdueAlert(t, 0, f.analystID)

	require.NoError(t, f.engine.Escalate(context.Background(), alert.ID))

	updated, err := f.store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.EscalationLevel)
	assert.Equal(t, compliance.StatusEscalated, updated.Status)
	assert.Equal(t, f.leadID, *updated.AssignedTo)
	assert.Equal(t, f.leadID, *updated.CurrentReviewer)
	assert.Equal(t, compliance.WorkflowPendingApproval, updated.WorkflowStatus)

	// critical at level 1 gets a one hour window
	assert.Equal(t, f.clock.Now().Add(time.Hour), *updated.DueDate)

	actions, err := f.store.ListActions(context.Background(), alert.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionEscalated, actions[0].ActionType)
	assert.Equal(t, "system", actions[0].PerformedBy)
}

func TestEscalateShiftsWorkload(t *testing.T) {
	f := newEscalationFixture(t)
	alert := f.overdueAlert(t, 0, f.analystID)

	require.NoError(t, f.engine.Escalate(context.Background(), alert.ID))

	analyst, err := f.directory.GetUser(context.Background(), f.analystID)
	require.NoError(t, err)
	assert.Equal(t, 0, analyst.CurrentWorkload)

	lead, err := f.directory.GetUser(context.Background(), f.leadID)
	require.NoError(t, err)
	assert.Equal(t, 1, lead.CurrentWorkload)
}

func TestEscalateLevelOneToManager(t *testing.T) {
	f := newEscalationFixture(t)
	alert := f.overdueAlert(t, 1, f.leadID)

	require.NoError(t, f.engine.Escalate(context.Background(), alert.ID))

	updated, err := f.store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.EscalationLevel)
	assert.Equal(t, f.managerID, *updated.AssignedTo)
}

func TestEscalateLevelTwoToRiskDepartment(t *testing.T) {
	f := newEscalationFixture(t)
	alert := f.overdueAlert(t, 2, f.managerID)

	require.NoError(t, f.engine.Escalate(context.Background(), alert.ID))

	updated, err := f.store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.EscalationLevel)
	assert.Equal(t, f.riskID, *updated.AssignedTo)
}

func TestEscalateNoTarget(t *testing.T) {
	f := newEscalationFixture(t)
	// strip the hierarchy above the lead
	lead, _ := f.directory.GetUser(context.Background(), f.leadID)
	lead.ManagerID = nil
	f.directory.addUser(*lead)

	alert := f.overdueAlert(t, 1, f.leadID)
	err := f.engine.Escalate(context.Background(), alert.ID)
	assert.ErrorIs(t, err, compliance.ErrNoEscalationTarget)

	unchanged, getErr := f.store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 1, unchanged.EscalationLevel, "a failed escalation changes nothing")
}

func TestEscalateRefusesTerminalAndCurrent(t *testing.T) {
	f := newEscalationFixture(t)

	closed := f.overdueAlert(t, 0, f.analystID)
	closed.Status = compliance.StatusClosed
	closed.WorkflowStatus = compliance.WorkflowClosed
	require.NoError(t, f.store.SaveAlert(context.Background(), closed))
	assert.ErrorIs(t, f.engine.Escalate(context.Background(), closed.ID), compliance.ErrInvalidTransition)

	fresh := f.overdueAlert(t, 0, f.analystID)
	future := f.clock.Now().Add(2 * time.Hour)
	fresh.DueDate = &future
	require.NoError(t, f.store.SaveAlert(context.Background(), fresh))
	assert.ErrorIs(t, f.engine.Escalate(context.Background(), fresh.ID), compliance.ErrInvalidTransition)
}

func TestEscalateUnknownAlert(t *testing.T) {
	f := newEscalationFixture(t)
	assert.ErrorIs(t, f.engine.Escalate(context.Background(), uuid.New()), compliance.ErrAlertNotFound)
}

func TestAlertsForEscalationFilters(t *testing.T) {
	f := newEscalationFixture(t)

	eligible := f.overdueAlert(t, 0, f.analystID)
	capped := f.overdueAlert(t, compliance.MaxEscalationLevel, f.riskID)

	notDue := f.overdueAlert(t, 0, f.analystID)
	future := f.clock.Now().Add(time.Hour)
	notDue.DueDate = &future
	require.NoError(t, f.store.SaveAlert(context.Background(), notDue))

	got, err := f.engine.AlertsForEscalation(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, eligible.ID, got[0].ID)
	_ = capped
}

func TestProcessSLABreaches(t *testing.T) {
	f := newEscalationFixture(t)

	f.overdueAlert(t, 0, f.analystID)
	f.overdueAlert(t, 0, f.analystID)

	// one alert whose escalation has no target
	lone := f.overdueAlert(t, 1, f.leadID)
	lead, _ := f.directory.GetUser(context.Background(), f.leadID)
	lead.ManagerID = nil
	f.directory.addUser(*lead)

	count, err := f.engine.ProcessSLABreaches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "the targetless alert is skipped, the rest proceed")

	unchanged, err := f.store.GetAlert(context.Background(), lone.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.EscalationLevel)
}

func TestProcessSLABreachesHonorsCancellation(t *testing.T) {
	f := newEscalationFixture(t)
	f.overdueAlert(t, 0, f.analystID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.ProcessSLABreaches(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
