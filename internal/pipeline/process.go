package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal"
	"storefront/internal/config"
	"storefront/internal/orderitems"
	"storefront/internal/storage"
)

type ProcessingService struct {
	db         *storage.DB
	cfg        config.Config
	resolve    orderitems.PublicURLFunc
	normalizer *orderitems.Normalizer
	logger     *slog.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, resolve orderitems.PublicURLFunc, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	n := &orderitems.Normalizer{}
	if cfg.NormalizeTrace {
		n.Trace = orderitems.SlogTracer(logger)
	}
	return &ProcessingService{db: db, cfg: cfg, resolve: resolve, normalizer: n, logger: logger}
}

// Line is a normalized line item ready for display.
type Line struct {
	orderitems.LineItem
	ImageURL  string          `json:"image_url"`
	Navigable bool            `json:"navigable"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderLines struct {
	Order    internal.OrderRecord `json:"order"`
	Items    []Line               `json:"items"`
	Summary  orderitems.Summary   `json:"summary"`
	Headline string               `json:"headline"`
}

type ImportResult struct {
	TraceID string
	Orders  int
	Lines   int
	Legacy  int
}

func (s *ProcessingService) Import(inputType, path string) (ImportResult, error) {
	start := time.Now()
	orders, err := ImportOrdersFromInput(inputType, path)
	if err != nil {
		return ImportResult{}, err
	}
	parsed := time.Since(start)

	if err := s.db.UpsertOrders(orders); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{TraceID: uuid.NewString(), Orders: len(orders)}
	for _, o := range orders {
		items := s.normalizer.Normalize(o)
		res.Lines += len(items)
		for _, li := range items {
			if li.LegacyRef {
				res.Legacy++
			}
		}
	}

	_ = s.db.InsertRun(res.TraceID, "import",
		map[string]float64{"parseMs": float64(parsed.Milliseconds()), "totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"orders": res.Orders, "lines": res.Lines, "legacy": res.Legacy})
	s.logger.Info("orders imported", "trace_id", res.TraceID, "type", inputType, "orders", res.Orders, "lines", res.Lines)
	return res, nil
}

// LineItems loads one order and normalizes its items. Unknown ids wrap
// storage.ErrNotFound.
func (s *ProcessingService) LineItems(orderID string) (OrderLines, error) {
	order, err := s.db.MustOrder(orderID)
	if err != nil {
		return OrderLines{}, err
	}
	return s.Lines(order), nil
}

// Lines normalizes an order that is already in memory.
func (s *ProcessingService) Lines(order internal.OrderRecord) OrderLines {
	items := s.normalizer.Normalize(order)
	out := OrderLines{
		Order:    order,
		Items:    make([]Line, 0, len(items)),
		Summary:  orderitems.Summarize(items),
		Headline: orderitems.Headline(items),
	}
	for _, li := range items {
		out.Items = append(out.Items, Line{
			LineItem:  li,
			ImageURL:  orderitems.ResolveImagePath(li.ProductImage, s.resolve),
			Navigable: li.Navigable(),
			LineTotal: orderitems.LineTotal(li),
		})
	}
	return out
}

// ExportOrders writes the line items of the given orders to one workbook and
// returns the number of rows written.
func (s *ProcessingService) ExportOrders(ids []string, outputPath string) (int, error) {
	start := time.Now()
	rows := []internal.LineItemExportRow{}
	for _, id := range ids {
		lines, err := s.LineItems(id)
		if err != nil {
			return 0, fmt.Errorf("export order %s: %w", id, err)
		}
		rows = append(rows, exportRows(lines)...)
	}

	if err := ExportLineItemsToXLSX(rows, outputPath); err != nil {
		return 0, err
	}

	traceID := uuid.NewString()
	_ = s.db.InsertRun(traceID, "export",
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"orders": len(ids), "rows": len(rows)})
	s.logger.Info("orders exported", "trace_id", traceID, "orders", len(ids), "rows", len(rows), "out", outputPath)
	return len(rows), nil
}

func exportRows(lines OrderLines) []internal.LineItemExportRow {
	out := make([]internal.LineItemExportRow, 0, len(lines.Items))
	for i, li := range lines.Items {
		out = append(out, internal.LineItemExportRow{
			OrderID:     lines.Order.ID,
			OrderStatus: lines.Order.Status,
			LineNo:      i + 1,
			ProductName: li.ProductName,
			ProductID:   li.ProductID,
			ImageURL:    li.ImageURL,
			Price:       li.Price,
			Quantity:    li.Quantity,
			LineTotal:   li.LineTotal.InexactFloat64(),
			Size:        li.Size,
			Color:       li.Color,
			LegacyRef:   li.LegacyRef,
		})
	}
	return out
}
