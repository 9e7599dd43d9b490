package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// DirectoryStore serves the compliance organization: users, teams and the
// workload counters consulted by assignment and escalation.
type DirectoryStore struct {
	db *gorm.DB
}

var _ compliance.Directory = (*DirectoryStore)(nil)

func (s *DirectoryStore) GetUser(ctx context.Context, id uuid.UUID) (*compliance.OrganizationUser, error) {
	var user compliance.OrganizationUser
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

func (s *DirectoryStore) GetUserByEmail(ctx context.Context, email string) (*compliance.OrganizationUser, error) {
	var user compliance.OrganizationUser
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (s *DirectoryStore) GetTeam(ctx context.Context, id uuid.UUID) (*compliance.Team, error) {
	var team compliance.Team
	err := s.db.WithContext(ctx).First(&team, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", id, err)
	}
	return &team, nil
}

func (s *DirectoryStore) ListTeams(ctx context.Context) ([]compliance.Team, error) {
	var teams []compliance.Team
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *DirectoryStore) ListTeamMembers(ctx context.Context, teamID uuid.UUID) ([]compliance.OrganizationUser, error) {
	var users []compliance.OrganizationUser
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list members of team %s: %w", teamID, err)
	}
	return users, nil
}

func (s *DirectoryStore) ListUsersByDepartment(ctx context.Context, department string) ([]compliance.OrganizationUser, error) {
	var users []compliance.OrganizationUser
	err := s.db.WithContext(ctx).
		Where("department = ?", department).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users in department %s: %w", department, err)
	}
	return users, nil
}

func (s *DirectoryStore) ListActiveUsers(ctx context.Context) ([]compliance.OrganizationUser, error) {
	var users []compliance.OrganizationUser
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return users, nil
}

// UpdateWorkload applies the delta inside the database so concurrent
// assignments serialize on the row, clamping the result at zero.
func (s *DirectoryStore) UpdateWorkload(ctx context.Context, userID uuid.UUID, delta int) error {
	res := s.db.WithContext(ctx).
		Model(&compliance.OrganizationUser{}).
		Where("id = ?", userID).
		Update("current_workload", gorm.Expr(
			"CASE WHEN current_workload + ? < 0 THEN 0 ELSE current_workload + ? END",
			delta, delta))
	if res.Error != nil {
		return fmt.Errorf("update workload for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update workload: user %s not found", userID)
	}
	return nil
}
