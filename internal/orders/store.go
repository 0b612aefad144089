package orders

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/starbot/core/logger"
)

// Terminal outcomes a purchase can end in.
const (
	StatusWalletIssued      = "wallet_issued"
	StatusWalletFailed      = "wallet_failed"
	StatusFulfilled         = "fulfilled"
	StatusFulfillmentFailed = "fulfillment_failed"
	StatusCancelled         = "cancelled"
)

// Order is one finished purchase outcome. In-flight conversations are never
// persisted; only terminal states land here.
type Order struct {
	ID              string    `db:"id"`
	ChatID          int64     `db:"chat_id"`
	OrderID         string    `db:"order_id"`
	Quantity        int64     `db:"quantity"`
	Currency        string    `db:"currency"`
	Network         string    `db:"network"`
	AmountUSD       float64   `db:"amount_usd"`
	Status          string    `db:"status"`
	ProviderMessage string    `db:"provider_message"`
	CreatedAt       time.Time `db:"created_at"`
}

// Recorder persists finished purchase outcomes for later audit.
type Recorder interface {
	Record(ctx context.Context, o Order) error
}

// NopRecorder discards outcomes. Used when no audit database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Order) error { return nil }

// Store writes purchase outcomes to Postgres.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const insertOrder = `
INSERT INTO orders (id, chat_id, order_id, quantity, currency, network, amount_usd, status, provider_message, created_at)
VALUES (:id, :chat_id, :order_id, :quantity, :currency, :network, :amount_usd, :status, :provider_message, :created_at)`

// Record inserts one outcome row. The id and timestamp are filled in here so
// callers only describe what happened.
func (s *Store) Record(ctx context.Context, o Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NamedExecContext(ctx, insertOrder, o); err != nil {
		logger.Error(ctx, "orders", "record.fail",
			slog.String("status", "fail"),
			slog.String("order_id", o.OrderID),
			slog.String("order_status", o.Status),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("orders: record %s: %w", o.OrderID, err)
	}

	logger.Debug(ctx, "orders", "record.ok",
		slog.String("status", "ok"),
		slog.String("order_id", o.OrderID),
		slog.String("order_status", o.Status),
	)
	return nil
}
