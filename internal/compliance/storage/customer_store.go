package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// CustomerStore resolves screened customers.
type CustomerStore struct {
	db *gorm.DB
}

var _ compliance.CustomerReader = (*CustomerStore)(nil)

func (s *CustomerStore) GetCustomer(ctx context.Context, id uuid.UUID) (*compliance.Customer, error) {
	var customer compliance.Customer
	err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &customer, nil
}

// SaveCustomer inserts or updates a customer record.
func (s *CustomerStore) SaveCustomer(ctx context.Context, customer *compliance.Customer) error {
	if err := s.db.WithContext(ctx).Save(customer).Error; err != nil {
		return fmt.Errorf("save customer %s: %w", customer.ID, err)
	}
	return nil
}

// ListCustomers returns all customers, used by batch screening runs.
func (s *CustomerStore) ListCustomers(ctx context.Context) ([]compliance.Customer, error) {
	var customers []compliance.Customer
	if err := s.db.WithContext(ctx).Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
