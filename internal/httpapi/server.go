// Package httpapi serves stored orders and their normalized line items as
// read-only JSON.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"storefront/internal"
	"storefront/internal/pipeline"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type OrderStore interface {
	GetOrder(id string) (*internal.OrderRecord, error)
	ListOrders(limit int) ([]internal.OrderRecord, error)
	ListOrdersByStatus(status string, limit int) ([]internal.OrderRecord, error)
}

// LineBuilder normalizes an order already loaded from the store.
type LineBuilder interface {
	Lines(order internal.OrderRecord) pipeline.OrderLines
}

type Server struct {
	e      *echo.Echo
	store  OrderStore
	lines  LineBuilder
	logger *slog.Logger
}

type orderSummary struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	Headline  string `json:"headline"`
	Lines     int    `json:"lines"`
	Subtotal  string `json:"subtotal"`
}

func New(store OrderStore, lines LineBuilder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	s := &Server{e: echo.New(), store: store, lines: lines, logger: logger}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.logger.Debug("request", "method", c.Request().Method, "path", c.Path(), "status", c.Response().Status, "ms", time.Since(start).Milliseconds())
			return err
		}
	})

	s.e.GET("/healthz", s.handleHealth)
	s.e.GET("/orders", s.handleListOrders)
	s.e.GET("/orders/:id/items", s.handleOrderItems)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.logger.Info("http server started", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListOrders(c echo.Context) error {
	limit := defaultListLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxListLimit)
	}

	var (
		orders []internal.OrderRecord
		err    error
	)
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		orders, err = s.store.ListOrdersByStatus(status, limit)
	} else {
		orders, err = s.store.ListOrders(limit)
	}
	if err != nil {
		s.logger.Error("list orders failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list orders"})
	}

	out := lo.Map(orders, func(o internal.OrderRecord, _ int) orderSummary {
		lines := s.lines.Lines(o)
		return orderSummary{
			ID:        o.ID,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			Headline:  lines.Headline,
			Lines:     lines.Summary.Lines,
			Subtotal:  lines.Summary.Subtotal.StringFixed(2),
		}
	})
	return c.JSON(http.StatusOK, map[string]any{"orders": out})
}

func (s *Server) handleOrderItems(c echo.Context) error {
	id := c.Param("id")
	order, err := s.store.GetOrder(id)
	if err != nil {
		s.logger.Error("load order failed", "order_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load order"})
	}
	if order == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "order not found"})
	}

	lines := s.lines.Lines(*order)
	return c.JSON(http.StatusOK, map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
		"headline": lines.Headline,
		"items":    lines.Items,
		"summary": map[string]any{
			"lines":    lines.Summary.Lines,
			"units":    lines.Summary.Units,
			"subtotal": lines.Summary.Subtotal.StringFixed(2),
		},
	})
}
