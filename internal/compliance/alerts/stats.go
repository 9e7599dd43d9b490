package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// Stats summarizes the alert population for dashboards.
type Stats struct {
	Total        int                               `json:"total"`
	Open         int                               `json:"open"`
	Overdue      int                               `json:"overdue"`
	ByStatus     map[compliance.AlertStatus]int    `json:"by_status"`
	ByRiskLevel  map[compliance.RiskLevel]int      `json:"by_risk_level"`
	ByAlertType  map[compliance.AlertType]int      `json:"by_alert_type"`
	ByEscalation map[int]int                       `json:"by_escalation_level"`
	ByWorkflow   map[compliance.WorkflowStatus]int `json:"by_workflow_status"`
	OldestOpen   *time.Time                        `json:"oldest_open,omitempty"`
}

// ComputeStats aggregates the full alert population. The open-alert gauge
// is refreshed as a side effect.
func (s *Service) ComputeStats(ctx context.Context) (*Stats, error) {
	alerts, err := s.store.ListAlerts(ctx, compliance.AlertFilter{})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	now := s.clock.Now()
	stats := &Stats{
		ByStatus:     make(map[compliance.AlertStatus]int),
		ByRiskLevel:  make(map[compliance.RiskLevel]int),
		ByAlertType:  make(map[compliance.AlertType]int),
		ByEscalation: make(map[int]int),
		ByWorkflow:   make(map[compliance.WorkflowStatus]int),
	}
	for i := range alerts {
		a := &alerts[i]
		stats.Total++
		stats.ByStatus[a.Status]++
		stats.ByRiskLevel[a.RiskLevel]++
		stats.ByAlertType[a.AlertType]++
		stats.ByEscalation[a.EscalationLevel]++
		stats.ByWorkflow[a.WorkflowStatus]++

		if a.IsTerminal() {
			continue
		}
		stats.Open++
		if a.DueDate != nil && a.DueDate.Before(now) {
			stats.Overdue++
		}
		if stats.OldestOpen == nil || a.CreatedAt.Before(*stats.OldestOpen) {
			created := a.CreatedAt
			stats.OldestOpen = &created
		}
	}

	s.metrics.SetOpenAlerts(stats.Open)
	return stats, nil
}
