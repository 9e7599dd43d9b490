package alerts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
	"github.com/jainguruprakash/PEP-sub001/internal/compliance/screening"
)

// Service ties screening, alert creation, assignment and the workflow
// together: it screens names, opens alerts for surviving matches, routes
// them to a team and assignee and stamps the initial SLA deadline.
type Service struct {
	engine    *screening.Engine
	factory   *Factory
	resolver  *Resolver
	store     compliance.AlertStore
	directory compliance.Directory
	sla       SLAConfig
	clock     compliance.Clock
	logger    *zap.Logger
	metrics   *Metrics
}

// NewService wires the alert service.
func NewService(engine *screening.Engine, factory *Factory, resolver *Resolver, store compliance.AlertStore, directory compliance.Directory, sla SLAConfig, clock compliance.Clock, logger *zap.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = compliance.SystemClock
	}
	return &Service{
		engine:    engine,
		factory:   factory,
		resolver:  resolver,
		store:     store,
		directory: directory,
		sla:       sla,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// ScreenCustomer screens the customer's name and opens one alert per
// match at or above threshold. The returned alerts are persisted,
// assigned and carry their initial due date.
func (s *Service) ScreenCustomer(ctx context.Context, customer *compliance.Customer, threshold float64) ([]*compliance.Alert, error) {
	if customer == nil {
		return nil, nil
	}
	candidates, err := s.engine.MatchCustomer(ctx, customer.FullName, threshold)
	if err != nil {
		return nil, fmt.Errorf("screen customer %s: %w", customer.ID, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	customerID := customer.ID
	return s.openAll(ctx, s.factory.FromCandidates(&customerID, candidates))
}

// ScreenTransaction screens a transaction's counterparty name and opens
// alerts against the owning customer.
func (s *Service) ScreenTransaction(ctx context.Context, tx *compliance.Transaction, threshold float64) ([]*compliance.Alert, error) {
	if tx == nil {
		return nil, nil
	}
	candidates, err := s.engine.MatchTransaction(ctx, tx, threshold)
	if err != nil {
		return nil, fmt.Errorf("screen transaction %s: %w", tx.ID, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	customerID := tx.CustomerID
	return s.openAll(ctx, s.factory.FromCandidates(&customerID, candidates))
}

// ScreenBatch screens many customers and opens alerts for every match.
// Matching runs concurrently; alert creation is sequential so audit rows
// and workload updates stay ordered.
func (s *Service) ScreenBatch(ctx context.Context, customers []compliance.Customer, threshold float64) ([]*compliance.Alert, error) {
	results, err := s.engine.MatchBatch(ctx, customers, threshold)
	if err != nil {
		return nil, fmt.Errorf("screen batch: %w", err)
	}

	var created []*compliance.Alert
	for _, result := range results {
		if len(result.Candidates) == 0 {
			continue
		}
		customerID := result.CustomerID
		opened, err := s.openAll(ctx, s.factory.FromCandidates(&customerID, result.Candidates))
		created = append(created, opened...)
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// openAll persists each alert, skipping matches that already have an
// open alert for the same customer and watchlist entry.
func (s *Service) openAll(ctx context.Context, batch []*compliance.Alert) ([]*compliance.Alert, error) {
	created := make([]*compliance.Alert, 0, len(batch))
	for _, alert := range batch {
		if alert.CustomerID != nil && alert.WatchlistEntryID != nil {
			exists, err := s.store.HasOpenAlert(ctx, *alert.CustomerID, *alert.WatchlistEntryID)
			if err != nil {
				return created, fmt.Errorf("dedupe check: %w", err)
			}
			if exists {
				continue
			}
		}
		if err := s.openAlert(ctx, alert); err != nil {
			return created, err
		}
		created = append(created, alert)
	}
	return created, nil
}

// RecordExternalMatch opens an alert for a hit reported by an external
// screening source with its own score.
func (s *Service) RecordExternalMatch(ctx context.Context, m ExternalMatch) (*compliance.Alert, error) {
	alert := s.factory.FromExternalMatch(m)
	if err := s.openAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// openAlert assigns, stamps the SLA deadline and persists the alert with
// its creation audit rows in one transaction. Assignment failures degrade
// to an unassigned alert rather than losing the match.
func (s *Service) openAlert(ctx context.Context, alert *compliance.Alert) error {
	now := s.clock.Now()
	due := s.sla.DueDate(now, alert.RiskLevel, 0)
	alert.DueDate = &due

	assignee, team, err := s.resolver.OptimalAssignee(ctx, alert)
	switch {
	case err == nil:
		alert.AssignedTo = &assignee.ID
		alert.CurrentReviewer = &assignee.ID
		alert.TeamID = &team.ID
	case errors.Is(err, compliance.ErrNoEligibleAssignee), errors.Is(err, compliance.ErrNoResponsibleTeam):
		s.logger.Warn("alert left unassigned",
			zap.String("alert_id", alert.ID.String()), zap.Error(err))
	default:
		return fmt.Errorf("resolve assignee: %w", err)
	}

	err = s.store.InTransaction(ctx, func(tx compliance.AlertStore) error {
		if err := tx.CreateAlert(ctx, alert); err != nil {
			return err
		}
		if err := tx.AppendAction(ctx, &compliance.AlertAction{
			AlertID:     alert.ID,
			ActionType:  ActionAlertCreated,
			PerformedBy: "system",
			NewStatus:   string(alert.WorkflowStatus),
			Comments:    fmt.Sprintf("match %q on %s scored %.4f", alert.MatchedName, alert.SourceList, alert.SimilarityScore),
			ActionDate:  now,
		}); err != nil {
			return err
		}
		if assignee == nil {
			return nil
		}
		return tx.AppendAction(ctx, &compliance.AlertAction{
			AlertID:        alert.ID,
			ActionType:     ActionAssigned,
			PerformedBy:    "system",
			PreviousStatus: string(alert.WorkflowStatus),
			NewStatus:      string(alert.WorkflowStatus),
			Comments:       fmt.Sprintf("assigned to %s", assignee.Email),
			ActionDate:     now,
		})
	})
	if err != nil {
		return fmt.Errorf("persist alert: %w", err)
	}

	if assignee != nil {
		if err := s.directory.UpdateWorkload(ctx, assignee.ID, 1); err != nil {
			s.logger.Warn("failed to increment assignee workload",
				zap.String("user_id", assignee.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("alert opened",
		zap.String("alert_id", alert.ID.String()),
		zap.String("alert_type", string(alert.AlertType)),
		zap.String("risk_level", string(alert.RiskLevel)),
		zap.Float64("score", alert.SimilarityScore))
	s.metrics.RecordAlertCreated(alert.AlertType, alert.RiskLevel)
	return nil
}
