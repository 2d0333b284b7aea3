// Package listener keeps the local order store in step with the datastore by
// running incremental syncs on an interval.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"storefront/internal"
	"storefront/internal/config"
	"storefront/internal/datastore"
)

const exportPageSize = 1000

type Syncer interface {
	IncrementalSync(ctx context.Context) (int, error)
}

type Exporter interface {
	ExportOrders(ids []string, outputPath string) (int, error)
}

type Store interface {
	GetMetadata(key string) (*string, error)
	ListOrdersUpdatedAfter(cursor string, limit, offset int) ([]internal.OrderRecord, error)
}

type Service struct {
	db       Store
	syncer   Syncer
	exporter Exporter
	cfg      config.Config
	logger   *slog.Logger
	now      func() time.Time
	pageSize int
}

func NewService(db Store, syncer Syncer, exporter Exporter, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, syncer: syncer, exporter: exporter, cfg: cfg, logger: logger, now: time.Now, pageSize: exportPageSize}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.SyncIntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logger.Error("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	before := ""
	if last, err := s.db.GetMetadata(datastore.LastSyncKey); err != nil {
		return err
	} else if last != nil {
		before = *last
	}

	synced, err := s.syncer.IncrementalSync(ctx)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.SyncAutoExport && synced > 0 {
		if exported, err = s.exportChanged(before); err != nil {
			return err
		}
	}

	s.logger.Info("listener cycle done", "synced", synced, "exported_rows", exported)
	return nil
}

// exportChanged writes every order touched since cursor into one workbook
// under OUTPUT_DIR/listener.
func (s *Service) exportChanged(cursor string) (int, error) {
	ids := []string{}
	for offset := 0; ; offset += s.pageSize {
		orders, err := s.db.ListOrdersUpdatedAfter(cursor, s.pageSize, offset)
		if err != nil {
			return 0, err
		}
		ids = append(ids, lo.Map(orders, func(o internal.OrderRecord, _ int) string { return o.ID })...)
		if len(orders) < s.pageSize {
			break
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	filename := fmt.Sprintf("orders_%s.xlsx", sanitizeStamp(s.now().UTC().Format(time.RFC3339)))
	return s.exporter.ExportOrders(ids, filepath.Join(s.cfg.OutputDir, "listener", filename))
}

func sanitizeStamp(input string) string {
	repl := strings.NewReplacer(":", "-", "/", "_", "\\", "_", " ", "_")
	return repl.Replace(input)
}
