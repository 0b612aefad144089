package purchase

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/starbot/core/telegram/helpers"
	"github.com/m3rciful/starbot/core/telegram/keyboard"
)

// CancelCallback is the callback key attached to the inline cancel button.
const CancelCallback = "purchase_cancel"

// Handler adapts the purchase Flow to telebot handlers. It satisfies the text
// router's Conversation interface so free-form messages reach the flow while
// a purchase is in progress.
type Handler struct {
	flow *Flow
}

func NewHandler(flow *Flow) *Handler {
	return &Handler{flow: flow}
}

// InProgress reports whether the user has an active purchase.
func (h *Handler) InProgress(userID int64) bool {
	return h.flow.Active(userID)
}

// Start handles the /start command.
func (h *Handler) Start(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	return h.render(c, h.flow.Start(ctx, c.Sender().ID, c.Chat().ID))
}

// Cancel handles the /cancel command.
func (h *Handler) Cancel(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	return h.render(c, h.flow.Cancel(ctx, c.Sender().ID))
}

// CancelFromCallback handles the inline cancel button press. The callback
// router has already answered the callback query.
func (h *Handler) CancelFromCallback(c tele.Context) error {
	return h.Cancel(c)
}

// Handle feeds one text message into the flow.
func (h *Handler) Handle(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	up := Update{
		UserID: c.Sender().ID,
		ChatID: c.Chat().ID,
		Text:   c.Text(),
	}
	return h.render(c, h.flow.Step(ctx, up))
}

func (h *Handler) render(c tele.Context, replies []Reply) error {
	for _, r := range replies {
		var err error
		switch {
		case len(r.Keyboard) > 0:
			err = helpers.SendKeyboard(c, r.Text, keyboard.ReplyButtons(r.Keyboard...))
		case r.InlineCancel:
			err = helpers.SendKeyboard(c, r.Text, keyboard.SingleCancelMarkup(CancelCallback))
		case r.RemoveKeyboard:
			err = helpers.SendKeyboard(c, r.Text, keyboard.RemoveKeyboard())
		default:
			err = helpers.SendText(c, r.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
