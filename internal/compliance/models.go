package compliance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel represents the risk level of an alert or watchlist entry
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// AlertType represents the category of screening that raised an alert
type AlertType string

const (
	AlertTypePEP           AlertType = "PEP"
	AlertTypeSanctions     AlertType = "SANCTIONS"
	AlertTypeOpenSanctions AlertType = "OPEN_SANCTIONS"
	AlertTypeAdverseMedia  AlertType = "ADVERSE_MEDIA"
)

// AlertStatus is the coarse lifecycle status of an alert
type AlertStatus string

const (
	StatusOpen          AlertStatus = "OPEN"
	StatusUnderReview   AlertStatus = "UNDER_REVIEW"
	StatusEscalated     AlertStatus = "ESCALATED"
	StatusResolved      AlertStatus = "RESOLVED"
	StatusClosed        AlertStatus = "CLOSED"
	StatusFalsePositive AlertStatus = "FALSE_POSITIVE"
)

// WorkflowStatus is the fine-grained review stage of an alert, distinct
// from the coarse AlertStatus
type WorkflowStatus string

const (
	WorkflowPendingReview        WorkflowStatus = "PENDING_REVIEW"
	WorkflowPendingApproval      WorkflowStatus = "PENDING_APPROVAL"
	WorkflowPendingManagerReview WorkflowStatus = "PENDING_MANAGER_REVIEW"
	WorkflowPendingRiskReview    WorkflowStatus = "PENDING_RISK_REVIEW"
	WorkflowResolved             WorkflowStatus = "RESOLVED"
	WorkflowClosed               WorkflowStatus = "CLOSED"
	WorkflowFalsePositive        WorkflowStatus = "FALSE_POSITIVE"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case WorkflowResolved, WorkflowClosed, WorkflowFalsePositive:
		return true
	}
	return false
}

// Departments referenced by assignment and escalation rules.
const (
	DepartmentCompliance = "Compliance"
	DepartmentRisk       = "Risk"
)

// MaxEscalationLevel is the highest escalation level an alert can reach.
// Level 3 alerts are never selected for further escalation.
const MaxEscalationLevel = 3

// WatchlistEntry is a sanctioned/PEP record sourced from an external list.
// The core reads these through WatchlistReader and never mutates them.
type WatchlistEntry struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	PrimaryName    string    `json:"primary_name" gorm:"index"`
	AlternateNames string    `json:"alternate_names" gorm:"type:text"` // semicolon-separated
	Source         string    `json:"source"`                           // OFAC, UN, EU, ...
	ListType       string    `json:"list_type"`                        // sanctions, pep, adverse_media
	RiskLevel      RiskLevel `json:"risk_level"`
	IsActive       bool      `json:"is_active" gorm:"index"`
	IsWhitelisted  bool      `json:"is_whitelisted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AlternateNameList parses the semicolon-separated alternate names,
// dropping empty segments.
func (e *WatchlistEntry) AlternateNameList() []string {
	if e.AlternateNames == "" {
		return nil
	}
	parts := strings.Split(e.AlternateNames, ";")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Customer is the screened party. Persistence and enrichment of customers
// belong to external collaborators; the core only reads identity and
// territory for matching and team routing.
type Customer struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	FullName    string    `json:"full_name"`
	Territory   string    `json:"territory"`
	CountryCode string    `json:"country_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction is a customer transaction whose counterparty name is
// screened against the watchlist.
type Transaction struct {
	ID               uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	CustomerID       uuid.UUID       `json:"customer_id" gorm:"type:uuid;index"`
	CounterpartyName string          `json:"counterparty_name"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(20,8)"`
	Currency         string          `json:"currency"`
	BookedAt         time.Time       `json:"booked_at"`
}

// Alert is the durable record created when a screening match clears the
// threshold. It is mutated only by the workflow state machine, the
// escalation engine and the assignment resolver; closure is a terminal
// state, never a delete.
type Alert struct {
	ID               uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	CustomerID       *uuid.UUID     `json:"customer_id" gorm:"type:uuid;index"`
	WatchlistEntryID *uuid.UUID     `json:"watchlist_entry_id" gorm:"type:uuid;index"`
	AlertType        AlertType      `json:"alert_type"`
	MatchedName      string         `json:"matched_name"`
	SourceList       string         `json:"source_list"`
	SimilarityScore  float64        `json:"similarity_score"`
	Status           AlertStatus    `json:"status" gorm:"index"`
	WorkflowStatus   WorkflowStatus `json:"workflow_status" gorm:"index"`
	Priority         RiskLevel      `json:"priority"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	EscalationLevel  int            `json:"escalation_level"`
	AssignedTo       *uuid.UUID     `json:"assigned_to" gorm:"type:uuid;index"`
	CurrentReviewer  *uuid.UUID     `json:"current_reviewer" gorm:"type:uuid"`
	TeamID           *uuid.UUID     `json:"team_id" gorm:"type:uuid"`
	DueDate          *time.Time     `json:"due_date" gorm:"index"`
	LastActionType   string         `json:"last_action_type"`
	LastActionAt     *time.Time     `json:"last_action_at"`
	Version          int64          `json:"version"` // optimistic concurrency token
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsTerminal reports whether the alert has reached a terminal lifecycle state.
func (a *Alert) IsTerminal() bool {
	switch a.Status {
	case StatusResolved, StatusClosed, StatusFalsePositive:
		return true
	}
	return false
}

// AlertAction is an append-only audit row, one per workflow transition.
// Rows are never mutated or deleted; replaying them in order from
// PENDING_REVIEW reconstructs the alert's current workflow status.
type AlertAction struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AlertID        uuid.UUID `json:"alert_id" gorm:"type:uuid;index"`
	ActionType     string    `json:"action_type"`
	PerformedBy    string    `json:"performed_by"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comments       string    `json:"comments"`
	ActionDate     time.Time `json:"action_date"`
}

// OrganizationUser is a member of the compliance organization, read by the
// assignment resolver and escalation engine.
type OrganizationUser struct {
	ID              uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Email           string     `json:"email" gorm:"uniqueIndex"`
	FullName        string     `json:"full_name"`
	Role            string     `json:"role"`
	Department      string     `json:"department" gorm:"index"`
	TeamID          *uuid.UUID `json:"team_id" gorm:"type:uuid;index"`
	ManagerID       *uuid.UUID `json:"manager_id" gorm:"type:uuid"`
	CurrentWorkload int        `json:"current_workload"`
	MaxWorkload     int        `json:"max_workload"`
	EscalationLevel int        `json:"escalation_level"` // 0=analyst, 1=team lead, 2=manager
	IsActive        bool       `json:"is_active" gorm:"index"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasCapacity reports whether the user can take on one more alert.
func (u *OrganizationUser) HasCapacity() bool {
	return u.MaxWorkload <= 0 || u.CurrentWorkload < u.MaxWorkload
}

// Team is an organizational unit that owns alerts for a territory or
// department.
type Team struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Name       string     `json:"name"`
	Territory  string     `json:"territory" gorm:"index"`
	Department string     `json:"department" gorm:"index"`
	TeamLeadID *uuid.UUID `json:"team_lead_id" gorm:"type:uuid"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
