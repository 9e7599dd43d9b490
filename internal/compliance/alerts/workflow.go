package alerts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// Audit action types recorded on alert transitions.
const (
	ActionAlertCreated = "ALERT_CREATED"
	ActionAssigned     = "ASSIGNED"
	ActionTransition   = "WORKFLOW_TRANSITION"
	ActionEscalated    = "ESCALATED"
)

// workflowNext defines the legal forward transitions. Every review stage
// may advance one stage or terminate; terminal states have no successors.
var workflowNext = map[compliance.WorkflowStatus][]compliance.WorkflowStatus{
	compliance.WorkflowPendingReview: {
		compliance.WorkflowPendingApproval,
		compliance.WorkflowResolved, compliance.WorkflowClosed, compliance.WorkflowFalsePositive,
	},
	compliance.WorkflowPendingApproval: {
		compliance.WorkflowPendingManagerReview,
		compliance.WorkflowResolved, compliance.WorkflowClosed, compliance.WorkflowFalsePositive,
	},
	compliance.WorkflowPendingManagerReview: {
		compliance.WorkflowPendingRiskReview,
		compliance.WorkflowResolved, compliance.WorkflowClosed, compliance.WorkflowFalsePositive,
	},
	compliance.WorkflowPendingRiskReview: {
		compliance.WorkflowResolved, compliance.WorkflowClosed, compliance.WorkflowFalsePositive,
	},
}

// ValidateTransition checks that from -> to is a legal workflow move.
// Transitions out of terminal states and jumps to non-adjacent stages are
// rejected with ErrInvalidTransition.
func ValidateTransition(from, to compliance.WorkflowStatus) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: alert is terminal in %s", compliance.ErrInvalidTransition, from)
	}
	for _, allowed := range workflowNext[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", compliance.ErrInvalidTransition, from, to)
}

// statusFor maps a workflow target onto the coarse lifecycle status.
// Escalation-driven moves mark the alert ESCALATED instead of UNDER_REVIEW.
func statusFor(to compliance.WorkflowStatus, escalated bool) compliance.AlertStatus {
	switch to {
	case compliance.WorkflowResolved:
		return compliance.StatusResolved
	case compliance.WorkflowClosed:
		return compliance.StatusClosed
	case compliance.WorkflowFalsePositive:
		return compliance.StatusFalsePositive
	}
	if escalated {
		return compliance.StatusEscalated
	}
	return compliance.StatusUnderReview
}

// StateMachine validates and applies workflow transitions, persisting the
// alert update and its audit row atomically.
type StateMachine struct {
	store  compliance.AlertStore
	clock  compliance.Clock
	logger *zap.Logger
}

// NewStateMachine creates a workflow state machine over an alert store.
func NewStateMachine(store compliance.AlertStore, clock compliance.Clock, logger *zap.Logger) *StateMachine {
	return &StateMachine{store: store, clock: clock, logger: logger}
}

// Transition moves an alert to the target workflow status on behalf of
// actor, appending exactly one audit action. The alert and the action are
// committed in one transaction; on any failure the alert is unchanged.
func (m *StateMachine) Transition(ctx context.Context, alertID uuid.UUID, to compliance.WorkflowStatus, actor, comments string) (*compliance.Alert, error) {
	var updated *compliance.Alert
	err := m.store.InTransaction(ctx, func(tx compliance.AlertStore) error {
		alert, err := tx.GetAlert(ctx, alertID)
		if err != nil {
			return err
		}
		if err := applyTransition(ctx, tx, m.clock, alert, to, ActionTransition, actor, comments, false); err != nil {
			return err
		}
		updated = alert
		return nil
	})
	if err != nil {
		m.logger.Warn("workflow transition rejected",
			zap.String("alert_id", alertID.String()),
			zap.String("to", string(to)),
			zap.String("actor", actor),
			zap.Error(err))
		return nil, err
	}

	m.logger.Info("workflow transition applied",
		zap.String("alert_id", alertID.String()),
		zap.String("workflow_status", string(to)),
		zap.String("actor", actor))
	return updated, nil
}

// applyTransition mutates the alert in-memory, saves it with the version
// check and appends the audit row. Callers supply the transactional store.
func applyTransition(ctx context.Context, tx compliance.AlertStore, clock compliance.Clock, alert *compliance.Alert, to compliance.WorkflowStatus, actionType, actor, comments string, escalated bool) error {
	if err := ValidateTransition(alert.WorkflowStatus, to); err != nil {
		return err
	}

	previous := alert.WorkflowStatus
	now := clock.Now()

	alert.WorkflowStatus = to
	alert.Status = statusFor(to, escalated)
	alert.LastActionType = actionType
	alert.LastActionAt = &now
	alert.UpdatedAt = now

	if err := tx.SaveAlert(ctx, alert); err != nil {
		return err
	}
	return tx.AppendAction(ctx, &compliance.AlertAction{
		AlertID:        alert.ID,
		ActionType:     actionType,
		PerformedBy:    actor,
		PreviousStatus: string(previous),
		NewStatus:      string(to),
		Comments:       comments,
		ActionDate:     now,
	})
}

// ReplayActions reconstructs an alert's workflow status by replaying its
// ordered audit trail from PENDING_REVIEW. The result must always equal
// the alert's persisted workflow status.
func ReplayActions(actions []compliance.AlertAction) compliance.WorkflowStatus {
	status := compliance.WorkflowPendingReview
	for _, action := range actions {
		if action.NewStatus != "" {
			status = compliance.WorkflowStatus(action.NewStatus)
		}
	}
	return status
}
