// Package storage provides the GORM-backed persistence for screening
// alerts, the watchlist and the compliance organization.
package storage

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// Store bundles the persistence implementations over one database handle.
type Store struct {
	Alerts    *AlertStore
	Watchlist *WatchlistStore
	Directory *DirectoryStore
	Customers *CustomerStore
}

// New creates the store over an open GORM connection.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		Alerts:    &AlertStore{db: db, logger: logger},
		Watchlist: &WatchlistStore{db: db},
		Directory: &DirectoryStore{db: db},
		Customers: &CustomerStore{db: db},
	}
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&compliance.WatchlistEntry{},
		&compliance.Customer{},
		&compliance.Transaction{},
		&compliance.Alert{},
		&compliance.AlertAction{},
		&compliance.OrganizationUser{},
		&compliance.Team{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
