package notification

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

const (
	// KindTransfer indicates funds arriving from another wallet.
	KindTransfer = "transfer_received"
)

// Message describes a balance-change notification for a wallet owner.
type Message struct {
	Kind     string
	WalletID int64
	Amount   decimal.Decimal
}

// Notifier delivers notifications to downstream systems. Delivery is best
// effort and never blocks a committed ledger operation.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger. It stands in
// for a real delivery channel.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"wallet_id", message.WalletID,
		"amount", message.Amount.String(),
	)
	return nil
}
