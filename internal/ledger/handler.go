package ledger

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/wallet-ledger/wallet_ledger/internal/notification"
)

// Handler exposes wallet ledger HTTP endpoints. It decodes requests into typed
// commands, invokes the coordinator, and maps domain declines onto statuses:
// not-found 404, insufficient balance and duplicates 406, bad amounts 400,
// store faults and timeouts 500.
type Handler struct {
	coordinator *Coordinator
	notifier    notification.Notifier
}

// NewHandler builds the wallet ledger HTTP handler. notifier may be nil.
func NewHandler(coordinator *Coordinator, notifier notification.Notifier) *Handler {
	return &Handler{coordinator: coordinator, notifier: notifier}
}

type createWalletRequest struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type walletResponse struct {
	WalletID  int64           `json:"wallet_id"`
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type historyResponse struct {
	TransactionID   int64           `json:"transaction_id"`
	WalletID        int64           `json:"wallet_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Create provisions the account's wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.coordinator.CreateWallet(c.UserContext(), req.AccountID, req.Balance)
	if err != nil {
		return declineError(err)
	}
	return c.Status(http.StatusCreated).JSON(toWalletResponse(w))
}

// Get returns the wallet with its current balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	walletID, err := pathID(c, "walletId")
	if err != nil {
		return err
	}
	w, err := h.coordinator.GetWallet(c.UserContext(), walletID)
	if err != nil {
		return declineError(err)
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}

// Deposit credits the wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.mutate(c, h.coordinator.Deposit)
}

// Withdraw debits the wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.mutate(c, h.coordinator.Withdraw)
}

func (h *Handler) mutate(c *fiber.Ctx, op func(ctx context.Context, walletID int64, amount decimal.Decimal) (Wallet, error)) error {
	walletID, err := pathID(c, "walletId")
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := op(c.UserContext(), walletID, req.Amount)
	if err != nil {
		return declineError(err)
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}

// Transfer moves funds between two wallets.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	sourceID, err := pathID(c, "walletId")
	if err != nil {
		return err
	}
	destinationID, err := pathID(c, "destinationId")
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.coordinator.Transfer(c.UserContext(), sourceID, destinationID, req.Amount)
	if err != nil {
		return declineError(err)
	}
	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:     notification.KindTransfer,
			WalletID: res.Destination.ID,
			Amount:   req.Amount,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"source":      toWalletResponse(res.Source),
		"destination": toWalletResponse(res.Destination),
	})
}

// History lists the wallet's immutable transaction records.
func (h *Handler) History(c *fiber.Ctx) error {
	walletID, err := pathID(c, "walletId")
	if err != nil {
		return err
	}
	items, err := h.coordinator.History(c.UserContext(), walletID)
	if err != nil {
		return declineError(err)
	}
	out := make([]historyResponse, 0, len(items))
	for _, item := range items {
		out = append(out, historyResponse{
			TransactionID:   item.ID,
			WalletID:        item.WalletID,
			TransactionType: item.Type,
			Amount:          item.Amount,
			Timestamp:       item.Timestamp,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toWalletResponse(w Wallet) walletResponse {
	return walletResponse{WalletID: w.ID, AccountID: w.AccountID, Balance: w.Balance, CreatedAt: w.CreatedAt}
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func declineError(err error) error {
	switch {
	case errors.Is(err, ErrWalletNotFound), errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrDuplicateWallet):
		return fiber.NewError(http.StatusNotAcceptable, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrConflict):
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "ledger store failure")
	}
}
