package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// terminalStatuses mark alerts that are decided; they are excluded from
// SLA sweeps and do not block re-screening the same match.
var terminalStatuses = []compliance.AlertStatus{
	compliance.StatusResolved,
	compliance.StatusClosed,
	compliance.StatusFalsePositive,
}

// AlertStore persists alerts and their audit trail in PostgreSQL (or
// SQLite in tests) through GORM.
type AlertStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ compliance.AlertStore = (*AlertStore)(nil)

func (s *AlertStore) GetAlert(ctx context.Context, id uuid.UUID) (*compliance.Alert, error) {
	var alert compliance.Alert
	err := s.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, compliance.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", id, err)
	}
	return &alert, nil
}

func (s *AlertStore) CreateAlert(ctx context.Context, alert *compliance.Alert) error {
	if alert.Version == 0 {
		alert.Version = 1
	}
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("create alert %s: %w", alert.ID, err)
	}
	return nil
}

// SaveAlert updates the alert guarded by the version it was read at. A
// zero-row update means a concurrent writer won; the caller's copy is
// left at its original version so a retry re-reads first.
func (s *AlertStore) SaveAlert(ctx context.Context, alert *compliance.Alert) error {
	readVersion := alert.Version
	alert.Version = readVersion + 1

	res := s.db.WithContext(ctx).
		Model(&compliance.Alert{}).
		Where("id = ? AND version = ?", alert.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(alert)
	if res.Error != nil {
		alert.Version = readVersion
		return fmt.Errorf("save alert %s: %w", alert.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		alert.Version = readVersion
		return fmt.Errorf("alert %s at version %d: %w", alert.ID, readVersion, compliance.ErrStaleAlert)
	}
	return nil
}

func (s *AlertStore) AppendAction(ctx context.Context, action *compliance.AlertAction) error {
	if action.ActionDate.IsZero() {
		action.ActionDate = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("append action for alert %s: %w", action.AlertID, err)
	}
	return nil
}

// ListActions returns the alert's audit trail in insertion order.
func (s *AlertStore) ListActions(ctx context.Context, alertID uuid.UUID) ([]compliance.AlertAction, error) {
	var actions []compliance.AlertAction
	err := s.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("id ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("list actions for alert %s: %w", alertID, err)
	}
	return actions, nil
}

func (s *AlertStore) ListAlerts(ctx context.Context, filter compliance.AlertFilter) ([]compliance.Alert, error) {
	query := s.db.WithContext(ctx).Model(&compliance.Alert{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RiskLevel != "" {
		query = query.Where("risk_level = ?", filter.RiskLevel)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}

	var alerts []compliance.Alert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// HasOpenAlert reports whether a non-terminal alert already exists for
// the customer and watchlist entry pair.
func (s *AlertStore) HasOpenAlert(ctx context.Context, customerID, entryID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&compliance.Alert{}).
		Where("customer_id = ? AND watchlist_entry_id = ?", customerID, entryID).
		Where("status NOT IN ?", terminalStatuses).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check open alert: %w", err)
	}
	return count > 0, nil
}

func (s *AlertStore) ListOverdue(ctx context.Context, now time.Time, maxLevel int) ([]compliance.Alert, error) {
	var alerts []compliance.Alert
	err := s.db.WithContext(ctx).
		Where("status NOT IN ?", terminalStatuses).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Where("escalation_level < ?", maxLevel).
		Order("due_date ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue alerts: %w", err)
	}
	return alerts, nil
}

// InTransaction runs fn against a store bound to a database transaction.
// Nested calls reuse GORM savepoints, so composing transactional helpers
// is safe.
func (s *AlertStore) InTransaction(ctx context.Context, fn func(tx compliance.AlertStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AlertStore{db: tx, logger: s.logger})
	})
}
