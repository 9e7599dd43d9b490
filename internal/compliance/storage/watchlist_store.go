package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jainguruprakash/PEP-sub001/internal/compliance"
)

// WatchlistStore persists watchlist entries and serves the matching
// engine's active snapshot.
type WatchlistStore struct {
	db *gorm.DB
}

var _ compliance.WatchlistReader = (*WatchlistStore)(nil)

// ListActive returns all active, non-whitelisted entries.
func (s *WatchlistStore) ListActive(ctx context.Context) ([]compliance.WatchlistEntry, error) {
	var entries []compliance.WatchlistEntry
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND is_whitelisted = ?", true, false).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list active watchlist entries: %w", err)
	}
	return entries, nil
}

// Upsert inserts or replaces an entry during list ingestion.
func (s *WatchlistStore) Upsert(ctx context.Context, entry *compliance.WatchlistEntry) error {
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("upsert watchlist entry %s: %w", entry.ID, err)
	}
	return nil
}

// Whitelist marks an entry as whitelisted so matching skips it.
func (s *WatchlistStore) Whitelist(ctx context.Context, entryID string) error {
	res := s.db.WithContext(ctx).
		Model(&compliance.WatchlistEntry{}).
		Where("id = ?", entryID).
		Update("is_whitelisted", true)
	if res.Error != nil {
		return fmt.Errorf("whitelist entry %s: %w", entryID, res.Error)
	}
	return nil
}
