package datastore

import (
	"context"
	"log/slog"

	"storefront/internal"
	"storefront/internal/config"
	"storefront/internal/storage"
)

// LastSyncKey is the metadata key holding the updated_at cursor of the last sync.
const LastSyncKey = "orders.last_sync"

type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
	logger *slog.Logger
}

func NewSyncService(db *storage.DB, cfg config.Config, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{db: db, client: NewClient(cfg, logger), cfg: cfg, logger: logger}
}

// InitialSync copies every order row.
func (s *SyncService) InitialSync(ctx context.Context) (int, error) {
	return s.sync(ctx, "")
}

// IncrementalSync copies rows updated after the cursor left by the previous sync.
func (s *SyncService) IncrementalSync(ctx context.Context) (int, error) {
	last, err := s.db.GetMetadata(LastSyncKey)
	if err != nil {
		return 0, err
	}
	cursor := ""
	if last != nil {
		cursor = *last
	}
	return s.sync(ctx, cursor)
}

func (s *SyncService) sync(ctx context.Context, updatedAfter string) (int, error) {
	pageSize := s.cfg.DatastorePageSize
	if pageSize <= 0 {
		pageSize = 500
	}

	total := 0
	cursor := updatedAfter
	for offset := 0; ; offset += pageSize {
		orders, err := s.client.ListOrders(ctx, Page{Limit: pageSize, Offset: offset, UpdatedAfter: updatedAfter})
		if err != nil {
			return total, err
		}
		if len(orders) > 0 {
			if err := s.db.UpsertOrders(orders); err != nil {
				return total, err
			}
			total += len(orders)
			cursor = maxUpdatedAt(cursor, orders)
		}
		s.logger.Debug("synced order page", "offset", offset, "rows", len(orders))
		if len(orders) < pageSize {
			break
		}
	}

	if cursor != "" && cursor != updatedAfter {
		if err := s.db.SetMetadata(LastSyncKey, cursor); err != nil {
			return total, err
		}
	}
	s.logger.Info("order sync complete", "rows", total, "cursor", cursor)
	return total, nil
}

// maxUpdatedAt compares timestamps as text; the datastore returns ISO-8601 in UTC.
func maxUpdatedAt(current string, orders []internal.OrderRecord) string {
	for _, o := range orders {
		if o.UpdatedAt > current {
			current = o.UpdatedAt
		}
	}
	return current
}
