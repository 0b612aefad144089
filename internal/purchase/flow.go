package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/m3rciful/starbot/core/logger"
	"github.com/m3rciful/starbot/core/telegram/state"
	"github.com/m3rciful/starbot/internal/orders"
	"github.com/m3rciful/starbot/internal/wallet"
)

// WalletService provisions deposit addresses for orders.
type WalletService interface {
	CreateWallet(ctx context.Context, currency, orderID string) (wallet.Deposit, error)
	NetworkFor(currency string) string
}

// StarSender credits purchased stars to a recipient.
type StarSender interface {
	SendStars(ctx context.Context, recipientID string, quantity int64) error
}

// Update is one inbound user message, stripped of transport detail.
type Update struct {
	UserID int64
	ChatID int64
	Text   string
}

// Reply is one outbound message the transport should render.
type Reply struct {
	Text           string
	Keyboard       [][]string // one-time reply keyboard rows, nil for none
	RemoveKeyboard bool
	InlineCancel   bool // attach an inline cancel button
}

// Flow drives the purchase conversation state machine. Each user has at most
// one active Session; every inbound message is interpreted against the state
// that session is waiting on.
type Flow struct {
	sessions     *state.Store[*Session]
	wallet       WalletService
	stars        StarSender
	orders       orders.Recorder
	unitPriceUSD float64
	now          func() time.Time
}

func NewFlow(w WalletService, s StarSender, rec orders.Recorder, unitPriceUSD float64) *Flow {
	if rec == nil {
		rec = orders.NopRecorder{}
	}
	return &Flow{
		sessions:     state.NewStore[*Session](),
		wallet:       w,
		stars:        s,
		orders:       rec,
		unitPriceUSD: unitPriceUSD,
		now:          time.Now,
	}
}

// Active reports whether the user has a purchase in flight.
func (f *Flow) Active(userID int64) bool {
	return f.sessions.Has(userID)
}

// Start begins a fresh purchase for the user, replacing any session already
// in flight.
func (f *Flow) Start(ctx context.Context, userID, chatID int64) []Reply {
	f.sessions.Put(userID, &Session{
		State:     StateAwaitingQuantity,
		ChatID:    chatID,
		StartedAt: f.now(),
	})
	logger.Info(ctx, "flow", "session.start",
		slog.Int64("user", userID),
		slog.Int64("chat", chatID),
	)
	return []Reply{{
		Text:           "Welcome to StarSeller Bot! 🎉\nHow many stars would you like to buy?",
		RemoveKeyboard: true,
	}}
}

// Cancel terminates the user's purchase from any state.
func (f *Flow) Cancel(ctx context.Context, userID int64) []Reply {
	sess, ok := f.sessions.Get(userID)
	if !ok {
		return []Reply{{Text: "You have no active purchase. Type /start to begin one."}}
	}
	f.sessions.Delete(userID)

	f.record(ctx, sess, orders.StatusCancelled, "")
	logger.Info(ctx, "flow", "session.cancel",
		slog.Int64("user", userID),
		slog.String("state", string(sess.State)),
	)
	return []Reply{{
		Text:           "Transaction has been cancelled. If you need anything else, just type /start.",
		RemoveKeyboard: true,
	}}
}

// Step feeds one user message into the state machine and returns the replies
// to render. Unrecognized input re-prompts instead of being dropped.
func (f *Flow) Step(ctx context.Context, up Update) []Reply {
	sess, ok := f.sessions.Get(up.UserID)
	if !ok {
		return []Reply{{Text: "Type /start to begin buying stars."}}
	}

	switch sess.State {
	case StateAwaitingQuantity:
		return f.stepQuantity(ctx, sess, up)
	case StateAwaitingRecipientType:
		return f.stepRecipientType(ctx, sess, up)
	case StateAwaitingRecipientID:
		return f.stepRecipientID(ctx, sess, up)
	case StateAwaitingCurrency:
		return f.stepCurrency(ctx, sess, up)
	case StateAwaitingPaymentAck:
		return f.stepPaymentAck(ctx, sess, up)
	}

	// Unknown state means the session is corrupt; drop it.
	f.sessions.Delete(up.UserID)
	return []Reply{{Text: "Something went wrong. Type /start to begin again."}}
}

func (f *Flow) stepQuantity(ctx context.Context, sess *Session, up Update) []Reply {
	qty, err := strconv.ParseInt(strings.TrimSpace(up.Text), 10, 64)
	if err != nil || qty <= 0 {
		return []Reply{{Text: "Please enter a positive whole number of stars."}}
	}

	sess.Quantity = qty
	sess.AmountUSD = float64(qty) * f.unitPriceUSD
	sess.State = StateAwaitingRecipientType
	f.sessions.Put(up.UserID, sess)

	logger.Debug(ctx, "flow", "quantity.set",
		slog.Int64("user", up.UserID),
		slog.Int64("quantity", qty),
		slog.Float64("amount_usd", sess.AmountUSD),
	)
	return []Reply{{
		Text:     "Are you buying stars for yourself or someone else?",
		Keyboard: [][]string{{RecipientMyself, RecipientSomeoneElse}},
	}}
}

func (f *Flow) stepRecipientType(ctx context.Context, sess *Session, up Update) []Reply {
	switch up.Text {
	case RecipientMyself:
		sess.RecipientType = RecipientMyself
		sess.RecipientID = strconv.FormatInt(sess.ChatID, 10)
		sess.State = StateAwaitingCurrency
		f.sessions.Put(up.UserID, sess)
		return f.currencyPrompt()
	case RecipientSomeoneElse:
		sess.RecipientType = RecipientSomeoneElse
		sess.State = StateAwaitingRecipientID
		f.sessions.Put(up.UserID, sess)
		return []Reply{{
			Text:           "Please provide the Telegram ID of the recipient:",
			RemoveKeyboard: true,
		}}
	}
	return []Reply{{
		Text:     "Please choose one of the options below.",
		Keyboard: [][]string{{RecipientMyself, RecipientSomeoneElse}},
	}}
}

func (f *Flow) stepRecipientID(ctx context.Context, sess *Session, up Update) []Reply {
	recipient := strings.TrimSpace(up.Text)
	if recipient == "" {
		return []Reply{{Text: "Please provide the Telegram ID of the recipient:"}}
	}
	sess.RecipientID = recipient
	sess.State = StateAwaitingCurrency
	f.sessions.Put(up.UserID, sess)
	return f.currencyPrompt()
}

func (f *Flow) currencyPrompt() []Reply {
	return []Reply{{
		Text:     "Please select the cryptocurrency you want to use for payment:",
		Keyboard: [][]string{{CurrencyUSDT, CurrencyBitcoin, CurrencyEthereum}},
	}}
}

func (f *Flow) stepCurrency(ctx context.Context, sess *Session, up Update) []Reply {
	currency, ok := ParseCurrency(up.Text)
	if !ok {
		return f.currencyPrompt()
	}

	sess.Currency = currency
	sess.OrderID = orderID(sess.ChatID, sess.Quantity)

	dep, err := f.wallet.CreateWallet(ctx, currency, sess.OrderID)
	if err != nil {
		f.sessions.Delete(up.UserID)

		msg := "Unknown error"
		var apiErr *wallet.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		f.record(ctx, sess, orders.StatusWalletFailed, msg)
		return []Reply{{
			Text:           fmt.Sprintf("There was an error creating the payment wallet: %s. Please try again later.", msg),
			RemoveKeyboard: true,
		}}
	}

	sess.Address = dep.Address
	sess.State = StateAwaitingPaymentAck
	f.sessions.Put(up.UserID, sess)
	f.record(ctx, sess, orders.StatusWalletIssued, "")

	return []Reply{{
		Text: fmt.Sprintf(
			"Please complete your payment using the following address:\n%s\nOr use this link: %s\nOnce payment is confirmed, your stars will be delivered.",
			dep.Address, dep.PayURL,
		),
		RemoveKeyboard: true,
		InlineCancel:   true,
	}}
}

func (f *Flow) stepPaymentAck(ctx context.Context, sess *Session, up Update) []Reply {
	// No callback verification is wired; any message here is taken as the
	// user's confirmation that payment went through.
	f.sessions.Delete(up.UserID)

	if err := f.stars.SendStars(ctx, sess.RecipientID, sess.Quantity); err != nil {
		f.record(ctx, sess, orders.StatusFulfillmentFailed, err.Error())
		return []Reply{{Text: "There was an error sending the stars. Please contact support."}}
	}

	f.record(ctx, sess, orders.StatusFulfilled, "")
	return []Reply{{Text: "Stars have been successfully sent! 🌟"}}
}

func (f *Flow) record(ctx context.Context, sess *Session, status, providerMsg string) {
	network := ""
	if sess.Currency != "" {
		network = f.wallet.NetworkFor(sess.Currency)
	}
	o := orders.Order{
		ChatID:          sess.ChatID,
		OrderID:         sess.OrderID,
		Quantity:        sess.Quantity,
		Currency:        sess.Currency,
		Network:         network,
		AmountUSD:       sess.AmountUSD,
		Status:          status,
		ProviderMessage: providerMsg,
	}
	if err := f.orders.Record(ctx, o); err != nil {
		logger.Warn(ctx, "flow", "order.record.fail",
			slog.String("order_id", sess.OrderID),
			slog.String("err", err.Error()),
		)
	}
}
