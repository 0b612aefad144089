package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/starbot/internal/orders"
	"github.com/m3rciful/starbot/internal/wallet"
)

type fakeWallet struct {
	deposit   wallet.Deposit
	err       error
	gotOrders []string
	gotCurr   []string
}

func (f *fakeWallet) CreateWallet(_ context.Context, currency, orderID string) (wallet.Deposit, error) {
	f.gotCurr = append(f.gotCurr, currency)
	f.gotOrders = append(f.gotOrders, orderID)
	if f.err != nil {
		return wallet.Deposit{}, f.err
	}
	return f.deposit, nil
}

func (f *fakeWallet) NetworkFor(currency string) string {
	if currency == CurrencyUSDT {
		return "tron"
	}
	return "mainnet"
}

type fakeStars struct {
	err      error
	gotID    string
	gotQty   int64
	numCalls int
}

func (f *fakeStars) SendStars(_ context.Context, recipientID string, quantity int64) error {
	f.numCalls++
	f.gotID = recipientID
	f.gotQty = quantity
	return f.err
}

type recordedOrders struct {
	records []orders.Order
}

func (r *recordedOrders) Record(_ context.Context, o orders.Order) error {
	r.records = append(r.records, o)
	return nil
}

const (
	testUser int64 = 7
	testChat int64 = 42
)

func newTestFlow(w *fakeWallet, s *fakeStars, rec orders.Recorder) *Flow {
	return NewFlow(w, s, rec, 0.2)
}

func step(f *Flow, text string) []Reply {
	return f.Step(context.Background(), Update{UserID: testUser, ChatID: testChat, Text: text})
}

// drive advances a fresh session through quantity and recipient selection.
func drive(f *Flow, inputs ...string) []Reply {
	var last []Reply
	last = f.Start(context.Background(), testUser, testChat)
	for _, in := range inputs {
		last = step(f, in)
	}
	return last
}

func TestStartPromptsForQuantity(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := f.Start(context.Background(), testUser, testChat)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "How many stars")
	assert.True(t, f.Active(testUser))
}

func TestQuantityComputesAmount(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	drive(f, "50")

	sess, ok := f.sessions.Get(testUser)
	require.True(t, ok)
	assert.Equal(t, int64(50), sess.Quantity)
	assert.InDelta(t, 10.0, sess.AmountUSD, 1e-9)
	assert.Equal(t, StateAwaitingRecipientType, sess.State)
}

func TestQuantityRejectsBadInput(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	for _, bad := range []string{"abc", "-3", "0", "1.5", ""} {
		replies := drive(f, bad)
		require.Len(t, replies, 1)
		assert.Contains(t, replies[0].Text, "positive whole number", "input %q", bad)

		sess, ok := f.sessions.Get(testUser)
		require.True(t, ok)
		assert.Equal(t, StateAwaitingQuantity, sess.State)
	}
}

func TestRecipientMyselfSkipsToCurrency(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := drive(f, "50", RecipientMyself)

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "cryptocurrency")
	assert.Equal(t, [][]string{{"USDT", "Bitcoin", "Ethereum"}}, replies[0].Keyboard)

	sess, _ := f.sessions.Get(testUser)
	assert.Equal(t, RecipientMyself, sess.RecipientType)
	assert.Equal(t, "42", sess.RecipientID)
	assert.Equal(t, StateAwaitingCurrency, sess.State)
}

func TestRecipientSomeoneElseAsksForID(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := drive(f, "50", RecipientSomeoneElse)

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Telegram ID")

	replies = step(f, "friend123")
	assert.Contains(t, replies[0].Text, "cryptocurrency")

	sess, _ := f.sessions.Get(testUser)
	assert.Equal(t, RecipientSomeoneElse, sess.RecipientType)
	assert.Equal(t, "friend123", sess.RecipientID)
	assert.Equal(t, StateAwaitingCurrency, sess.State)
}

func TestRecipientTypeRepromptsOnUnknownInput(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := drive(f, "50", "maybe")

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "choose one of the options")
	assert.Equal(t, [][]string{{RecipientMyself, RecipientSomeoneElse}}, replies[0].Keyboard)

	sess, _ := f.sessions.Get(testUser)
	assert.Equal(t, StateAwaitingRecipientType, sess.State)
}

func TestCurrencyRepromptsOnUnknownInput(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := drive(f, "50", RecipientMyself, "Dogecoin")

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "cryptocurrency")

	sess, _ := f.sessions.Get(testUser)
	assert.Equal(t, StateAwaitingCurrency, sess.State)
}

func TestWalletSuccessAdvancesToPaymentAck(t *testing.T) {
	w := &fakeWallet{deposit: wallet.Deposit{Address: "X", PayURL: "Y"}}
	rec := &recordedOrders{}
	f := newTestFlow(w, &fakeStars{}, rec)

	replies := drive(f, "50", RecipientMyself, "USDT")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "X")
	assert.Contains(t, replies[0].Text, "Y")
	assert.True(t, replies[0].InlineCancel)

	assert.Equal(t, []string{"42-50"}, w.gotOrders)
	assert.Equal(t, []string{"USDT"}, w.gotCurr)

	sess, _ := f.sessions.Get(testUser)
	assert.Equal(t, StateAwaitingPaymentAck, sess.State)
	assert.Equal(t, "X", sess.Address)

	require.Len(t, rec.records, 1)
	assert.Equal(t, orders.StatusWalletIssued, rec.records[0].Status)
	assert.Equal(t, "tron", rec.records[0].Network)
	assert.InDelta(t, 10.0, rec.records[0].AmountUSD, 1e-9)
}

func TestWalletFailureRelaysProviderMessage(t *testing.T) {
	w := &fakeWallet{err: &wallet.APIError{HTTPStatus: 422, Message: "currency not supported"}}
	rec := &recordedOrders{}
	f := newTestFlow(w, &fakeStars{}, rec)

	replies := drive(f, "50", RecipientMyself, "Bitcoin")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "currency not supported")
	assert.Contains(t, replies[0].Text, "try again later")

	assert.False(t, f.Active(testUser))
	require.Len(t, rec.records, 1)
	assert.Equal(t, orders.StatusWalletFailed, rec.records[0].Status)
	assert.Equal(t, "currency not supported", rec.records[0].ProviderMessage)
}

func TestWalletTransportFailureUsesGenericMessage(t *testing.T) {
	w := &fakeWallet{err: errors.New("connection refused")}
	f := newTestFlow(w, &fakeStars{}, nil)

	replies := drive(f, "50", RecipientMyself, "Ethereum")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Unknown error")
	assert.False(t, f.Active(testUser))
}

func TestPaymentAckDeliversStars(t *testing.T) {
	w := &fakeWallet{deposit: wallet.Deposit{Address: "X", PayURL: "Y"}}
	s := &fakeStars{}
	rec := &recordedOrders{}
	f := newTestFlow(w, s, rec)

	replies := drive(f, "50", RecipientSomeoneElse, "abc", "USDT", "paid")
	require.Len(t, replies, 1)
	assert.Equal(t, "Stars have been successfully sent! 🌟", replies[0].Text)

	assert.Equal(t, 1, s.numCalls)
	assert.Equal(t, "abc", s.gotID)
	assert.Equal(t, int64(50), s.gotQty)
	assert.False(t, f.Active(testUser))

	require.Len(t, rec.records, 2)
	assert.Equal(t, orders.StatusWalletIssued, rec.records[0].Status)
	assert.Equal(t, orders.StatusFulfilled, rec.records[1].Status)
}

func TestPaymentAckDeliveryFailure(t *testing.T) {
	w := &fakeWallet{deposit: wallet.Deposit{Address: "X", PayURL: "Y"}}
	s := &fakeStars{err: errors.New("bad gateway")}
	rec := &recordedOrders{}
	f := newTestFlow(w, s, rec)

	replies := drive(f, "50", RecipientMyself, "USDT", "paid")
	require.Len(t, replies, 1)
	assert.Equal(t, "There was an error sending the stars. Please contact support.", replies[0].Text)

	assert.False(t, f.Active(testUser))
	assert.Equal(t, orders.StatusFulfillmentFailed, rec.records[len(rec.records)-1].Status)
}

func TestCancelFromEveryState(t *testing.T) {
	w := &fakeWallet{deposit: wallet.Deposit{Address: "X", PayURL: "Y"}}

	// Inputs that bring a fresh session into each non-terminal state.
	paths := map[string][]string{
		"awaiting_quantity":       {},
		"awaiting_recipient_type": {"50"},
		"awaiting_recipient_id":   {"50", RecipientSomeoneElse},
		"awaiting_currency":       {"50", RecipientMyself},
		"awaiting_payment_ack":    {"50", RecipientMyself, "USDT"},
	}

	for name, inputs := range paths {
		t.Run(name, func(t *testing.T) {
			rec := &recordedOrders{}
			f := newTestFlow(w, &fakeStars{}, rec)
			drive(f, inputs...)
			require.True(t, f.Active(testUser))

			replies := f.Cancel(context.Background(), testUser)
			require.Len(t, replies, 1)
			assert.Contains(t, replies[0].Text, "Transaction has been cancelled")
			assert.False(t, f.Active(testUser))

			last := rec.records[len(rec.records)-1]
			assert.Equal(t, orders.StatusCancelled, last.Status)
		})
	}
}

func TestCancelWithoutSession(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := f.Cancel(context.Background(), testUser)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "no active purchase")
}

func TestStepWithoutSession(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	replies := step(f, "hello")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "/start")
}

func TestStartReplacesExistingSession(t *testing.T) {
	f := newTestFlow(&fakeWallet{}, &fakeStars{}, nil)
	drive(f, "50")
	f.Start(context.Background(), testUser, testChat)

	sess, ok := f.sessions.Get(testUser)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingQuantity, sess.State)
	assert.Zero(t, sess.Quantity)
}
