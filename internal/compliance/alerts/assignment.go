package alerts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// Resolver routes new alerts to the responsible team and, within it, to
// the assignee with the most spare capacity.
type Resolver struct {
	directory compliance.Directory
	customers compliance.CustomerReader
	logger    *zap.Logger
}

// NewResolver creates an assignment resolver.
func NewResolver(directory compliance.Directory, customers compliance.CustomerReader, logger *zap.Logger) *Resolver {
	return &Resolver{directory: directory, customers: customers, logger: logger}
}

// ResponsibleTeam resolves the team that should own the alert. Priority:
// the customer's territory team, then the rule table on (alert type, risk
// level), then any active Compliance team.
func (r *Resolver) ResponsibleTeam(ctx context.Context, alert *compliance.Alert) (*compliance.Team, error) {
	teams, err := r.directory.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	if team := r.territoryTeam(ctx, alert, teams); team != nil {
		return team, nil
	}
	if team := ruleTableTeam(alert, teams); team != nil {
		return team, nil
	}
	if team := firstTeam(teams, func(t *compliance.Team) bool {
		return t.Department == compliance.DepartmentCompliance
	}); team != nil {
		return team, nil
	}
	return nil, compliance.ErrNoResponsibleTeam
}

// territoryTeam matches the customer's territory against active teams.
// Alerts without a customer, or customers without a territory, skip this
// rule entirely.
func (r *Resolver) territoryTeam(ctx context.Context, alert *compliance.Alert, teams []compliance.Team) *compliance.Team {
	if alert.CustomerID == nil {
		return nil
	}
	customer, err := r.customers.GetCustomer(ctx, *alert.CustomerID)
	if err != nil {
		r.logger.Warn("customer lookup failed during team routing",
			zap.String("alert_id", alert.ID.String()), zap.Error(err))
		return nil
	}
	if customer == nil || strings.TrimSpace(customer.Territory) == "" {
		return nil
	}
	return firstTeam(teams, func(t *compliance.Team) bool {
		return strings.EqualFold(t.Territory, customer.Territory)
	})
}

// ruleTableTeam applies the fixed routing rules keyed on alert type and
// risk level, most specific first.
func ruleTableTeam(alert *compliance.Alert, teams []compliance.Team) *compliance.Team {
	if alert.RiskLevel == compliance.RiskLevelCritical {
		if team := firstTeam(teams, func(t *compliance.Team) bool {
			return strings.Contains(t.Name, "Senior")
		}); team != nil {
			return team
		}
	}
	if alert.AlertType == compliance.AlertTypePEP || alert.AlertType == compliance.AlertTypeSanctions {
		if team := firstTeam(teams, func(t *compliance.Team) bool {
			return t.Department == compliance.DepartmentCompliance
		}); team != nil {
			return team
		}
	}
	if alert.RiskLevel == compliance.RiskLevelHigh {
		return firstTeam(teams, func(t *compliance.Team) bool {
			return t.Department == compliance.DepartmentCompliance
		})
	}
	return nil
}

func firstTeam(teams []compliance.Team, match func(*compliance.Team) bool) *compliance.Team {
	for i := range teams {
		if teams[i].IsActive && match(&teams[i]) {
			return &teams[i]
		}
	}
	return nil
}

// OptimalAssignee picks the user who should review the alert: the active,
// under-capacity analyst of the responsible team with the lowest workload
// (ties broken by least recent login), falling back to the team lead and
// finally to any active under-capacity user in the organization.
func (r *Resolver) OptimalAssignee(ctx context.Context, alert *compliance.Alert) (*compliance.OrganizationUser, *compliance.Team, error) {
	team, err := r.ResponsibleTeam(ctx, alert)
	if err != nil {
		return nil, nil, err
	}

	members, err := r.directory.ListTeamMembers(ctx, team.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list team members: %w", err)
	}

	analysts := filterUsers(members, func(u *compliance.OrganizationUser) bool {
		return u.IsActive && u.EscalationLevel == 0 && u.HasCapacity()
	})
	if len(analysts) > 0 {
		sortByLoad(analysts)
		return &analysts[0], team, nil
	}

	if lead := r.teamLead(ctx, team); lead != nil && lead.IsActive && lead.HasCapacity() {
		return lead, team, nil
	}

	anyone, err := r.directory.ListActiveUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list active users: %w", err)
	}
	eligible := filterUsers(anyone, func(u *compliance.OrganizationUser) bool {
		return u.HasCapacity()
	})
	if len(eligible) > 0 {
		sortByLoad(eligible)
		return &eligible[0], team, nil
	}
	return nil, nil, compliance.ErrNoEligibleAssignee
}

func (r *Resolver) teamLead(ctx context.Context, team *compliance.Team) *compliance.OrganizationUser {
	if team.TeamLeadID == nil {
		return nil
	}
	lead, err := r.directory.GetUser(ctx, *team.TeamLeadID)
	if err != nil {
		r.logger.Warn("team lead lookup failed",
			zap.String("team_id", team.ID.String()), zap.Error(err))
		return nil
	}
	return lead
}

// UpdateWorkload adjusts a user's workload; the directory clamps the
// result at zero and serializes increments per user.
func (r *Resolver) UpdateWorkload(ctx context.Context, userID uuid.UUID, delta int) error {
	return r.directory.UpdateWorkload(ctx, userID, delta)
}

func filterUsers(users []compliance.OrganizationUser, keep func(*compliance.OrganizationUser) bool) []compliance.OrganizationUser {
	out := make([]compliance.OrganizationUser, 0, len(users))
	for i := range users {
		if keep(&users[i]) {
			out = append(out, users[i])
		}
	}
	return out
}

// sortByLoad orders candidates by ascending workload, then by least
// recently logged in (users who never logged in sort first).
func sortByLoad(users []compliance.OrganizationUser) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CurrentWorkload != users[j].CurrentWorkload {
			return users[i].CurrentWorkload < users[j].CurrentWorkload
		}
		return lastLogin(&users[i]).Before(lastLogin(&users[j]))
	})
}

func lastLogin(u *compliance.OrganizationUser) time.Time {
	if u.LastLoginAt == nil {
		return time.Time{}
	}
	return *u.LastLoginAt
}
