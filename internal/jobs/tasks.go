package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shoptracker/internal/domain"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	QueueDefault = "default"
	// TaskStockAlert is enqueued when a product crosses into low or out of stock.
	TaskStockAlert = "inventory:stock_alert"
)

type StockAlertPayload struct {
	TenantID    string             `json:"tenant_id"`
	ProductID   string             `json:"product_id"`
	ProductName string             `json:"product_name"`
	Quantity    int                `json:"quantity"`
	MinStock    int                `json:"min_stock"`
	Status      domain.StockStatus `json:"status"`
}

// StockAlertFor builds the payload for a product's current stock level.
func StockAlertFor(tenantID string, p domain.Product) StockAlertPayload {
	return StockAlertPayload{
		TenantID:    tenantID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    p.Quantity,
		MinStock:    p.MinStock,
		Status:      p.StockStatus(),
	}
}

func NewStockAlertTask(payload StockAlertPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAlert, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

type ActivityRecorder interface {
	LogActivity(ctx context.Context, entry domain.ActivityEntry) error
}

// StockAlertHandler records an activity entry for every alert it processes.
type StockAlertHandler struct {
	activity ActivityRecorder
	logger   *zap.Logger
}

func NewStockAlertHandler(activity ActivityRecorder, logger *zap.Logger) *StockAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAlertHandler{activity: activity, logger: logger}
}

func (h *StockAlertHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload StockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Warn("stock alert payload rejected", zap.Error(err))
		return fmt.Errorf("decode stock alert: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.TenantID) == "" || strings.TrimSpace(payload.ProductID) == "" {
		h.logger.Warn("stock alert payload missing ids")
		return fmt.Errorf("stock alert without tenant or product: %w", asynq.SkipRetry)
	}

	title := "Low stock"
	if payload.Status == domain.StockOutOfStock {
		title = "Out of stock"
	}
	tenantID := payload.TenantID
	entry := domain.ActivityEntry{
		TenantID:   &tenantID,
		Actor:      "system",
		ActionType: "stock_alert",
		Title:      fmt.Sprintf("Stock alert: %s", title),
		Details:    fmt.Sprintf("%s has %d left (minimum %d)", payload.ProductName, payload.Quantity, payload.MinStock),
	}
	if h.activity != nil {
		if err := h.activity.LogActivity(ctx, entry); err != nil {
			return fmt.Errorf("record stock alert: %w", err)
		}
	}

	h.logger.Info("stock alert",
		zap.String("tenant_id", payload.TenantID),
		zap.String("product_id", payload.ProductID),
		zap.String("status", string(payload.Status)),
		zap.Int("quantity", payload.Quantity),
	)
	return nil
}
