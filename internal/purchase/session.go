package purchase

import (
	"fmt"
	"time"
)

// State names the step a purchase conversation is waiting on.
type State string

const (
	StateAwaitingQuantity      State = "awaiting_quantity"
	StateAwaitingRecipientType State = "awaiting_recipient_type"
	StateAwaitingRecipientID   State = "awaiting_recipient_id"
	StateAwaitingCurrency      State = "awaiting_currency"
	StateAwaitingPaymentAck    State = "awaiting_payment_ack"
)

// Payment currencies offered to the user. Labels double as keyboard button
// text and as the currency field on the wallet request.
const (
	CurrencyUSDT     = "USDT"
	CurrencyBitcoin  = "Bitcoin"
	CurrencyEthereum = "Ethereum"
)

// Recipient type button labels, matched exactly.
const (
	RecipientMyself      = "Myself"
	RecipientSomeoneElse = "Someone else"
)

// ParseCurrency validates a currency button press. Only exact label matches
// are accepted.
func ParseCurrency(text string) (string, bool) {
	switch text {
	case CurrencyUSDT, CurrencyBitcoin, CurrencyEthereum:
		return text, true
	}
	return "", false
}

// Session is one user's in-flight purchase. It lives in process memory only
// and is dropped once the flow reaches a terminal outcome.
type Session struct {
	State         State
	ChatID        int64
	Quantity      int64
	RecipientType string
	RecipientID   string
	Currency    string
	OrderID     string
	Address     string
	AmountUSD   float64
	StartedAt   time.Time
}

// orderID derives the wallet order identifier from chat id and quantity.
// Two identical orders from the same chat collide; the provider tolerates
// reuse of an order id for static wallets.
func orderID(chatID, quantity int64) string {
	return fmt.Sprintf("%d-%d", chatID, quantity)
}
