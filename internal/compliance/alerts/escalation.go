package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// EscalationEngine moves overdue alerts up the review chain. Each
// escalation bumps the alert's level, reassigns it to the next target
// in the hierarchy and tightens the due date according to the SLA
// factor for the new level.
type EscalationEngine struct {
	store     compliance.AlertStore
	directory compliance.Directory
	sla       SLAConfig
	clock     compliance.Clock
	logger    *zap.Logger
	metrics   *Metrics
}

func NewEscalationEngine(store compliance.AlertStore, directory compliance.Directory, sla SLAConfig, clock compliance.Clock, logger *zap.Logger, metrics *Metrics) *EscalationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = compliance.SystemClock
	}
	return &EscalationEngine{
		store:     store,
		directory: directory,
		sla:       sla,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// AlertsForEscalation returns open alerts whose due date has passed
// and which still have escalation headroom.
func (e *EscalationEngine) AlertsForEscalation(ctx context.Context) ([]compliance.Alert, error) {
	alerts, err := e.store.ListOverdue(ctx, e.clock.Now(), compliance.MaxEscalationLevel)
	if err != nil {
		return nil, fmt.Errorf("list overdue alerts: %w", err)
	}
	return alerts, nil
}

// EscalationTarget resolves who receives the alert at the next level.
// Level 0 hands off to the team lead, level 1 to the lead's manager and
// level 2 to the risk department. A nil user with a nil error means no
// target exists in the hierarchy.
func (e *EscalationEngine) EscalationTarget(ctx context.Context, alert *compliance.Alert) (*compliance.OrganizationUser, error) {
	switch alert.EscalationLevel {
	case 0:
		return e.teamLeadOrManager(ctx, alert)
	case 1:
		return e.currentManager(ctx, alert)
	case 2:
		return e.riskReviewer(ctx)
	default:
		return nil, nil
	}
}

func (e *EscalationEngine) teamLeadOrManager(ctx context.Context, alert *compliance.Alert) (*compliance.OrganizationUser, error) {
	if alert.TeamID != nil {
		team, err := e.directory.GetTeam(ctx, *alert.TeamID)
		if err != nil {
			return nil, fmt.Errorf("get team %s: %w", *alert.TeamID, err)
		}
		if team != nil && team.TeamLeadID != nil {
			lead, err := e.directory.GetUser(ctx, *team.TeamLeadID)
			if err != nil {
				return nil, err
			}
			if lead != nil && lead.IsActive {
				return lead, nil
			}
		}
	}
	return e.currentManager(ctx, alert)
}

func (e *EscalationEngine) currentManager(ctx context.Context, alert *compliance.Alert) (*compliance.OrganizationUser, error) {
	if alert.CurrentReviewer == nil {
		return nil, nil
	}
	reviewer, err := e.directory.GetUser(ctx, *alert.CurrentReviewer)
	if err != nil {
		return nil, err
	}
	if reviewer == nil || reviewer.ManagerID == nil {
		return nil, nil
	}
	manager, err := e.directory.GetUser(ctx, *reviewer.ManagerID)
	if err != nil {
		return nil, err
	}
	if manager == nil || !manager.IsActive {
		return nil, nil
	}
	return manager, nil
}

func (e *EscalationEngine) riskReviewer(ctx context.Context) (*compliance.OrganizationUser, error) {
	users, err := e.directory.ListUsersByDepartment(ctx, compliance.DepartmentRisk)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.IsActive && u.EscalationLevel >= 2 {
			return &u, nil
		}
	}
	return nil, nil
}

// Escalate advances a single alert by one level. The whole update runs
// in one transaction with an optimistic version check so that two
// pollers racing on the same alert cannot double-escalate it.
func (e *EscalationEngine) Escalate(ctx context.Context, alertID uuid.UUID) error {
	now := e.clock.Now()
	return e.store.InTransaction(ctx, func(tx compliance.AlertStore) error {
		alert, err := tx.GetAlert(ctx, alertID)
		if err != nil {
			return err
		}
		if alert == nil {
			return compliance.ErrAlertNotFound
		}
		if alert.IsTerminal() {
			return fmt.Errorf("alert %s is closed: %w", alertID, compliance.ErrInvalidTransition)
		}
		if alert.EscalationLevel >= compliance.MaxEscalationLevel {
			return fmt.Errorf("alert %s already at level %d: %w", alertID, alert.EscalationLevel, compliance.ErrInvalidTransition)
		}
		if alert.DueDate != nil && alert.DueDate.After(now) {
			return fmt.Errorf("alert %s is not overdue: %w", alertID, compliance.ErrInvalidTransition)
		}

		target, err := e.EscalationTarget(ctx, alert)
		if err != nil {
			return fmt.Errorf("resolve escalation target: %w", err)
		}
		if target == nil {
			return fmt.Errorf("alert %s level %d: %w", alertID, alert.EscalationLevel, compliance.ErrNoEscalationTarget)
		}

		previousAssignee := alert.AssignedTo
		previousStage := alert.WorkflowStatus

		alert.EscalationLevel++
		alert.Status = compliance.StatusEscalated
		alert.AssignedTo = &target.ID
		alert.CurrentReviewer = &target.ID
		due := e.sla.DueDate(now, alert.RiskLevel, alert.EscalationLevel)
		alert.DueDate = &due
		alert.LastActionType = ActionEscalated
		alert.LastActionAt = &now
		alert.UpdatedAt = now
		if next, ok := nextWorkflowStage(alert.WorkflowStatus); ok {
			alert.WorkflowStatus = next
		}

		if err := tx.SaveAlert(ctx, alert); err != nil {
			return err
		}

		action := &compliance.AlertAction{
			AlertID:        alert.ID,
			ActionType:     ActionEscalated,
			PerformedBy:    "system",
			PreviousStatus: string(previousStage),
			NewStatus:      string(alert.WorkflowStatus),
			Comments:       fmt.Sprintf("escalated to level %d, reassigned to %s", alert.EscalationLevel, target.Email),
			ActionDate:     now,
		}
		if err := tx.AppendAction(ctx, action); err != nil {
			return err
		}

		if previousAssignee != nil && *previousAssignee != target.ID {
			if err := e.directory.UpdateWorkload(ctx, *previousAssignee, -1); err != nil {
				e.logger.Warn("failed to decrement previous assignee workload",
					zap.String("user_id", previousAssignee.String()), zap.Error(err))
			}
		}
		if previousAssignee == nil || *previousAssignee != target.ID {
			if err := e.directory.UpdateWorkload(ctx, target.ID, 1); err != nil {
				e.logger.Warn("failed to increment new assignee workload",
					zap.String("user_id", target.ID.String()), zap.Error(err))
			}
		}

		e.logger.Info("alert escalated",
			zap.String("alert_id", alert.ID.String()),
			zap.Int("level", alert.EscalationLevel),
			zap.String("assigned_to", target.Email),
			zap.Time("due", due))
		e.metrics.RecordEscalation(alert.RiskLevel, alert.EscalationLevel)
		return nil
	})
}

// nextWorkflowStage maps an escalated alert onto the next pending
// review stage; terminals and the final pending stage stay put.
func nextWorkflowStage(current compliance.WorkflowStatus) (compliance.WorkflowStatus, bool) {
	switch current {
	case compliance.WorkflowPendingReview:
		return compliance.WorkflowPendingApproval, true
	case compliance.WorkflowPendingApproval:
		return compliance.WorkflowPendingManagerReview, true
	case compliance.WorkflowPendingManagerReview:
		return compliance.WorkflowPendingRiskReview, true
	default:
		return current, false
	}
}

// ProcessSLABreaches escalates every eligible overdue alert. Failures
// on individual alerts are logged and skipped so one bad record cannot
// stall the sweep; the count of successful escalations is returned.
func (e *EscalationEngine) ProcessSLABreaches(ctx context.Context) (int, error) {
	candidates, err := e.AlertsForEscalation(ctx)
	if err != nil {
		return 0, err
	}
	e.metrics.RecordSweep()

	escalated := 0
	for _, alert := range candidates {
		if err := ctx.Err(); err != nil {
			return escalated, err
		}
		if err := e.Escalate(ctx, alert.ID); err != nil {
			switch {
			case errors.Is(err, compliance.ErrNoEscalationTarget):
				e.logger.Warn("no escalation target available, skipping",
					zap.String("alert_id", alert.ID.String()),
					zap.Int("level", alert.EscalationLevel))
			case errors.Is(err, compliance.ErrStaleAlert):
				e.logger.Debug("alert modified concurrently, skipping",
					zap.String("alert_id", alert.ID.String()))
			default:
				e.logger.Error("failed to escalate alert",
					zap.String("alert_id", alert.ID.String()), zap.Error(err))
			}
			continue
		}
		escalated++
	}

	if escalated > 0 {
		e.logger.Info("sla sweep complete",
			zap.Int("candidates", len(candidates)), zap.Int("escalated", escalated))
	}
	return escalated, nil
}

// RunPolling sweeps for SLA breaches on a fixed interval until the
// context is cancelled.
func (e *EscalationEngine) RunPolling(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("escalation poller started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("escalation poller stopped")
			return
		case <-ticker.C:
			if _, err := e.ProcessSLABreaches(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("sla sweep failed", zap.Error(err))
			}
		}
	}
}
