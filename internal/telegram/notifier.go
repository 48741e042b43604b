// Package telegram sends run notifications and watches a job channel through
// the Telegram Bot API.
package telegram

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBotAPI connects to the Bot API with token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return api, nil
}

// Job is what a notification says about the job applied to.
type Job struct {
	ID      string
	Title   string
	Company string
}

// Notifier reports application results to one chat. A zero chat id
// disables it.
type Notifier struct {
	sender Sender
	chatID int64
	log    *slog.Logger
}

func NewNotifier(sender Sender, chatID int64, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Notifier{sender: sender, chatID: chatID, log: log}
}

func (n *Notifier) SendMessage(text string) error {
	if n == nil || n.sender == nil || n.chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	n.log.Debug("notification sent", "chat_id", n.chatID)
	return nil
}

func (n *Notifier) NotifySuccess(job Job, applicationID string) error {
	var b strings.Builder
	b.WriteString("✅ <b>Application Submitted Successfully!</b>\n\n")
	writeJob(&b, job, true)
	if applicationID != "" {
		fmt.Fprintf(&b, "🆔 <b>Application ID:</b> %s\n", html.EscapeString(applicationID))
	}
	b.WriteString("\n🎉 Your application has been automatically submitted!")
	return n.SendMessage(b.String())
}

func (n *Notifier) NotifyFailure(job Job, reason string) error {
	var b strings.Builder
	b.WriteString("❌ <b>Application Failed</b>\n\n")
	writeJob(&b, job, false)
	if reason != "" {
		fmt.Fprintf(&b, "\n⚠️ <b>Error:</b> %s", html.EscapeString(reason))
	}
	return n.SendMessage(b.String())
}

// NotifyPending tells the user a job is queued for manual approval.
func (n *Notifier) NotifyPending(job Job, matched []string) error {
	var b strings.Builder
	b.WriteString("📝 <b>Requires Manual Approval</b>\n\n")
	writeJob(&b, job, true)
	if len(matched) > 0 {
		fmt.Fprintf(&b, "🔑 <b>Keywords:</b> %s\n", html.EscapeString(strings.Join(matched, ", ")))
	}
	b.WriteString("\nA cover letter was drafted. Approve it with a manual apply.")
	return n.SendMessage(b.String())
}

func (n *Notifier) SendError(err error) error {
	return n.SendMessage(fmt.Sprintf("⚠️ <b>Auto-apply error</b>:\n%s", html.EscapeString(err.Error())))
}

func writeJob(b *strings.Builder, job Job, withCompany bool) {
	fmt.Fprintf(b, "📋 <b>Job ID:</b> %s\n", html.EscapeString(job.ID))
	if job.Title != "" {
		fmt.Fprintf(b, "💼 <b>Position:</b> %s\n", html.EscapeString(job.Title))
	}
	if withCompany && job.Company != "" {
		fmt.Fprintf(b, "🏢 <b>Company:</b> %s\n", html.EscapeString(job.Company))
	}
}
