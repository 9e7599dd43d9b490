package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// fakeClock is a settable clock for deterministic SLA math.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// memAlertStore is an in-memory AlertStore with real version checking and
// copy-on-write transactions.
type memAlertStore struct {
	alerts  map[uuid.UUID]compliance.Alert
	actions []compliance.AlertAction
	nextID  int64
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{alerts: make(map[uuid.UUID]compliance.Alert), nextID: 1}
}

func (s *memAlertStore) GetAlert(_ context.Context, id uuid.UUID) (*compliance.Alert, error) {
	alert, ok := s.alerts[id]
	if !ok {
		return nil, compliance.ErrAlertNotFound
	}
	copied := alert
	return &copied, nil
}

func (s *memAlertStore) CreateAlert(_ context.Context, alert *compliance.Alert) error {
	if _, exists := s.alerts[alert.ID]; exists {
		return fmt.Errorf("alert %s already exists", alert.ID)
	}
	if alert.Version == 0 {
		alert.Version = 1
	}
	s.alerts[alert.ID] = *alert
	return nil
}

func (s *memAlertStore) SaveAlert(_ context.Context, alert *compliance.Alert) error {
	stored, ok := s.alerts[alert.ID]
	if !ok {
		return compliance.ErrAlertNotFound
	}
	if stored.Version != alert.Version {
		return compliance.ErrStaleAlert
	}
	alert.Version++
	s.alerts[alert.ID] = *alert
	return nil
}

func (s *memAlertStore) AppendAction(_ context.Context, action *compliance.AlertAction) error {
	action.ID = s.nextID
	s.nextID++
	s.actions = append(s.actions, *action)
	return nil
}

func (s *memAlertStore) ListActions(_ context.Context, alertID uuid.UUID) ([]compliance.AlertAction, error) {
	var out []compliance.AlertAction
	for _, a := range s.actions {
		if a.AlertID == alertID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memAlertStore) ListAlerts(_ context.Context, filter compliance.AlertFilter) ([]compliance.Alert, error) {
	var out []compliance.Alert
	for _, a := range s.alerts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.RiskLevel != "" && a.RiskLevel != filter.RiskLevel {
			continue
		}
		if filter.AssignedTo != nil && (a.AssignedTo == nil || *a.AssignedTo != *filter.AssignedTo) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memAlertStore) HasOpenAlert(_ context.Context, customerID, entryID uuid.UUID) (bool, error) {
	for _, a := range s.alerts {
		if a.CustomerID == nil || a.WatchlistEntryID == nil {
			continue
		}
		if *a.CustomerID == customerID && *a.WatchlistEntryID == entryID && !a.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memAlertStore) ListOverdue(_ context.Context, now time.Time, maxLevel int) ([]compliance.Alert, error) {
	var out []compliance.Alert
	for _, a := range s.alerts {
		if a.Status == compliance.StatusResolved || a.Status == compliance.StatusClosed || a.Status == compliance.StatusFalsePositive {
			continue
		}
		if a.DueDate == nil || !a.DueDate.Before(now) {
			continue
		}
		if a.EscalationLevel >= maxLevel {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

// InTransaction snapshots state and restores it when fn fails, matching
// the rollback behavior of the real store.
func (s *memAlertStore) InTransaction(_ context.Context, fn func(tx compliance.AlertStore) error) error {
	snapshotAlerts := make(map[uuid.UUID]compliance.Alert, len(s.alerts))
	for k, v := range s.alerts {
		snapshotAlerts[k] = v
	}
	snapshotActions := append([]compliance.AlertAction(nil), s.actions...)
	snapshotNextID := s.nextID

	if err := fn(s); err != nil {
		s.alerts = snapshotAlerts
		s.actions = snapshotActions
		s.nextID = snapshotNextID
		return err
	}
	return nil
}

// fakeDirectory is an in-memory Directory.
type fakeDirectory struct {
	users map[uuid.UUID]compliance.OrganizationUser
	teams map[uuid.UUID]compliance.Team
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: make(map[uuid.UUID]compliance.OrganizationUser),
		teams: make(map[uuid.UUID]compliance.Team),
	}
}

func (d *fakeDirectory) addUser(u compliance.OrganizationUser) uuid.UUID {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	d.users[u.ID] = u
	return u.ID
}

func (d *fakeDirectory) addTeam(t compliance.Team) uuid.UUID {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	d.teams[t.ID] = t
	return t.ID
}

func (d *fakeDirectory) GetUser(_ context.Context, id uuid.UUID) (*compliance.OrganizationUser, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	copied := u
	return &copied, nil
}

func (d *fakeDirectory) GetUserByEmail(_ context.Context, email string) (*compliance.OrganizationUser, error) {
	for _, u := range d.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) GetTeam(_ context.Context, id uuid.UUID) (*compliance.Team, error) {
	t, ok := d.teams[id]
	if !ok {
		return nil, nil
	}
	copied := t
	return &copied, nil
}

func (d *fakeDirectory) ListTeams(context.Context) ([]compliance.Team, error) {
	out := make([]compliance.Team, 0, len(d.teams))
	for _, t := range d.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *fakeDirectory) ListTeamMembers(_ context.Context, teamID uuid.UUID) ([]compliance.OrganizationUser, error) {
	var out []compliance.OrganizationUser
	for _, u := range d.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListUsersByDepartment(_ context.Context, department string) ([]compliance.OrganizationUser, error) {
	var out []compliance.OrganizationUser
	for _, u := range d.users {
		if u.Department == department {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListActiveUsers(context.Context) ([]compliance.OrganizationUser, error) {
	var out []compliance.OrganizationUser
	for _, u := range d.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) UpdateWorkload(_ context.Context, userID uuid.UUID, delta int) error {
	u, ok := d.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.CurrentWorkload += delta
	if u.CurrentWorkload < 0 {
		u.CurrentWorkload = 0
	}
	d.users[userID] = u
	return nil
}

// fakeCustomers is an in-memory CustomerReader.
type fakeCustomers struct {
	customers map[uuid.UUID]compliance.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{customers: make(map[uuid.UUID]compliance.Customer)}
}

func (c *fakeCustomers) add(customer compliance.Customer) uuid.UUID {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	c.customers[customer.ID] = customer
	return customer.ID
}

func (c *fakeCustomers) GetCustomer(_ context.Context, id uuid.UUID) (*compliance.Customer, error) {
	customer, ok := c.customers[id]
	if !ok {
		return nil, nil
	}
	copied := customer
	return &copied, nil
}
