package bot

import (
	"fmt"
	"strings"
	"time"

	"pto-tracker/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ledgerLimit is how many rows /ledger prints.
const ledgerLimit = 10

// Sender delivers a reply to a chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

// Handler answers HR questions in Telegram.
type Handler struct {
	sender   Sender
	calendar *service.CalendarService
	ledger   *service.LedgerService
	hrChatID int64
	now      func() time.Time
	logger   *logrus.Logger
}

// NewHandler creates the bot. A zero hrChatID answers in any chat.
func NewHandler(sender Sender, calendar *service.CalendarService, ledger *service.LedgerService, hrChatID int64) *Handler {
	return &Handler{
		sender:   sender,
		calendar: calendar,
		ledger:   ledger,
		hrChatID: hrChatID,
		now:      time.Now,
		logger:   logrus.StandardLogger(),
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			continue
		}
		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	from := ""
	if message.From != nil {
		from = message.From.UserName
	}
	h.logger.Infof("[%s] %s", from, message.Text)

	if !message.IsCommand() {
		return
	}
	if h.hrChatID != 0 && message.Chat.ID != h.hrChatID {
		h.reply(message.Chat.ID, "This bot only answers in the HR chat.")
		return
	}
	h.handleCommand(message)
}

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start", "help":
		h.reply(chatID, helpText)
	case "out":
		h.whoIsOut(chatID)
	case "ledger":
		h.ledgerLookup(chatID, args)
	default:
		h.reply(chatID, "Unknown command. Use /help.")
	}
}

const helpText = `PTO bot commands:
/out - who is on PTO today
/ledger <name> - latest PTO of people matching a name or email
/help - this message`

func (h *Handler) whoIsOut(chatID int64) {
	absences, err := h.calendar.OutOn(h.now())
	if err != nil {
		h.logger.WithError(err).Error("who is out lookup failed")
		h.reply(chatID, "❌ Could not load today's PTO.")
		return
	}
	h.reply(chatID, service.WhoIsOut(absences))
}

func (h *Handler) ledgerLookup(chatID int64, name string) {
	if name == "" {
		h.reply(chatID, "Usage: /ledger <name>")
		return
	}

	rows, err := h.ledger.Rows(service.LedgerFilter{Name: name})
	if err != nil {
		h.logger.WithError(err).Error("ledger lookup failed")
		h.reply(chatID, "❌ Could not load the ledger.")
		return
	}
	h.reply(chatID, FormatLedger(name, rows))
}

// FormatLedger prints the most recent rows, newest first.
func FormatLedger(name string, rows []service.LedgerRow) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No PTO found for %q.", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PTO matching %q:\n", name)
	shown := 0
	for i := len(rows) - 1; i >= 0 && shown < ledgerLimit; i-- {
		r := rows[i]
		fmt.Fprintf(&b, "- %s %s <%s>: %s to %s, %d hours",
			r.FirstName, r.LastName, r.Email,
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.TotalHours)
		if r.Details != "" {
			fmt.Fprintf(&b, " (%s)", r.Details)
		}
		b.WriteString("\n")
		shown++
	}
	if len(rows) > ledgerLimit {
		fmt.Fprintf(&b, "…and %d more", len(rows)-ledgerLimit)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.sender.SendText(chatID, text); err != nil {
		h.logger.WithError(err).Warnf("reply to chat %d failed", chatID)
	}
}
