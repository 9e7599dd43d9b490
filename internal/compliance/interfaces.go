package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time for SLA computation so due dates and overdue
// selection are testable. All times are UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

// WatchlistReader provides read access to the active watchlist. The
// implementation owns list ingestion and refresh; the core only consumes
// a snapshot per matching call.
type WatchlistReader interface {
	// ListActive returns all active, non-whitelisted entries.
	ListActive(ctx context.Context) ([]WatchlistEntry, error)
}

// CustomerReader resolves screened customers by id. Not-found is reported
// as (nil, nil), distinct from lookup failure.
type CustomerReader interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
}

// Directory provides read access to the compliance organization plus the
// single workload write the assignment resolver needs. Lookups of unknown
// ids return (nil, nil) rather than an error so callers can tell "no such
// user" apart from an infrastructure failure.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*OrganizationUser, error)
	GetUserByEmail(ctx context.Context, email string) (*OrganizationUser, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	ListTeamMembers(ctx context.Context, teamID uuid.UUID) ([]OrganizationUser, error)
	ListUsersByDepartment(ctx context.Context, department string) ([]OrganizationUser, error)
	ListActiveUsers(ctx context.Context) ([]OrganizationUser, error)

	// UpdateWorkload atomically adds delta to the user's current workload,
	// clamped at a minimum of 0. Increments must be serialized per user so
	// concurrent assignments cannot push an analyst past capacity.
	UpdateWorkload(ctx context.Context, userID uuid.UUID, delta int) error
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Status     AlertStatus
	RiskLevel  RiskLevel
	AssignedTo *uuid.UUID
}

// AlertStore persists alerts and their append-only audit trail.
type AlertStore interface {
	GetAlert(ctx context.Context, id uuid.UUID) (*Alert, error)

	// CreateAlert inserts a new alert at version 1.
	CreateAlert(ctx context.Context, alert *Alert) error

	// SaveAlert updates an existing alert using an optimistic version
	// check: it fails with ErrStaleAlert when the stored version differs
	// from alert.Version, and bumps the version on success.
	SaveAlert(ctx context.Context, alert *Alert) error

	AppendAction(ctx context.Context, action *AlertAction) error
	ListActions(ctx context.Context, alertID uuid.UUID) ([]AlertAction, error)

	ListAlerts(ctx context.Context, filter AlertFilter) ([]Alert, error)

	// HasOpenAlert reports whether a non-terminal alert already exists
	// for the customer and watchlist entry pair, so repeat screening
	// runs do not duplicate standing matches.
	HasOpenAlert(ctx context.Context, customerID, entryID uuid.UUID) (bool, error)

	// ListOverdue returns alerts eligible for escalation: status outside
	// {CLOSED, FALSE_POSITIVE}, a due date before now, and escalation
	// level below maxLevel.
	ListOverdue(ctx context.Context, now time.Time, maxLevel int) ([]Alert, error)

	// InTransaction runs fn against a transactional view of the store.
	// The alert update and its paired audit row must commit or roll back
	// together; partial audit is never acceptable.
	InTransaction(ctx context.Context, fn func(tx AlertStore) error) error
}
