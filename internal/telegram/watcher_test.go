package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/store"
	"go-afriwork-autoapply/internal/workflow"
)

const (
	channelID = int64(-1001234567890)
	jobID     = "1da3bfc7-f753-4064-9c2d-0d1af77073d6"
	postText  = "Job Title: Golang Backend Engineer\nCompany: Acme\nRemote role working with PostgreSQL and Docker."
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

type fakeApplier struct {
	got []workflow.Request
	out workflow.Outcome
	err error
}

func (f *fakeApplier) Apply(_ context.Context, req workflow.Request) (workflow.Outcome, error) {
	f.got = append(f.got, req)
	return f.out, f.err
}

type fakeWriter struct{ letter string }

func (f fakeWriter) WriteCoverLetter(context.Context, string) (string, error) {
	return f.letter, nil
}

type fakeCounter struct{ decisions []string }

func (f *fakeCounter) ChannelPost(d string) { f.decisions = append(f.decisions, d) }

func post(chat int64, text string, urls ...string) *tgbotapi.Message {
	msg := &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chat}, Text: text}
	if len(urls) > 0 {
		var row []tgbotapi.InlineKeyboardButton
		for _, u := range urls {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL("Apply", u))
		}
		markup := tgbotapi.NewInlineKeyboardMarkup(row)
		msg.ReplyMarkup = &markup
	}
	return msg
}

var testConfig = WatcherConfig{
	ChannelID:      channelID,
	Keywords:       []string{"golang", "backend", "remote", "postgresql"},
	MinimumMatches: 3,
	AutoApply:      true,
	Handle:         "am4nuel",
}

func TestParseChannelID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1234567890", want: -1001234567890},
		{raw: "-1001234567890", want: -1001234567890},
		{raw: "123456", want: 123456},
		{raw: " 1234567890 ", want: -1001234567890},
		{raw: "@channel", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseChannelID(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatcher_AutoApply(t *testing.T) {
	sender := &fakeSender{}
	applier := &fakeApplier{out: workflow.Outcome{
		Result: afriwork.ApplicationResult{ApplicationID: "app-123"},
		Job:    afriwork.JobDetails{Title: "Golang Backend Engineer", Company: "Acme"},
	}}
	counter := &fakeCounter{}
	w := NewWatcher(testConfig, applier, WithNotifier(NewNotifier(sender, 42, nil)), WithCounter(counter))

	decision := w.Handle(context.Background(), post(channelID, postText, "https://t.me/bot/app?startapp="+jobID))

	assert.Equal(t, DecisionApplied, decision)
	require.Len(t, applier.got, 1)
	req := applier.got[0]
	assert.Equal(t, jobID, req.Application.JobID)
	require.NotNil(t, req.Application.Handle)
	assert.Equal(t, "am4nuel", *req.Application.Handle)
	assert.Equal(t, "Golang Backend Engineer", req.JobTitle)
	assert.Len(t, req.MatchedKeywords, 4)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "app-123")
	assert.Contains(t, sender.sent[0].Text, "Acme")
	assert.Equal(t, []string{DecisionApplied}, counter.decisions)

	again := w.Handle(context.Background(), post(channelID, postText, "https://t.me/bot/app?startapp="+jobID))
	assert.Equal(t, DecisionDuplicate, again)
	assert.Len(t, applier.got, 1)
}

func TestWatcher_FailureNotification(t *testing.T) {
	sender := &fakeSender{}
	applier := &fakeApplier{err: &workflow.StageError{
		Stage: afriwork.StageSubmit,
		Err:   &afriwork.SubmissionFailed{Reason: "Uniqueness violation"},
	}}
	w := NewWatcher(testConfig, applier, WithNotifier(NewNotifier(sender, 42, nil)))

	decision := w.Handle(context.Background(), post(channelID, postText, "https://t.me/bot/app?startapp="+jobID))

	assert.Equal(t, DecisionFailed, decision)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "You have already applied to this job.")
}

func TestWatcher_Skips(t *testing.T) {
	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want string
	}{
		{name: "other chat", msg: post(-100999, postText, "https://t.me/bot/app?startapp="+jobID), want: DecisionIgnored},
		{name: "no buttons", msg: post(channelID, postText), want: DecisionNoJobID},
		{name: "too few keywords", msg: post(channelID, "Job Title: Accountant", "https://t.me/bot/app?startapp="+jobID), want: DecisionNoMatch},
		{name: "nil message", msg: nil, want: DecisionIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applier := &fakeApplier{}
			w := NewWatcher(testConfig, applier)

			assert.Equal(t, tt.want, w.Handle(context.Background(), tt.msg))
			assert.Empty(t, applier.got)
		})
	}
}

func TestWatcher_PendingWhenAutoApplyOff(t *testing.T) {
	cfg := testConfig
	cfg.AutoApply = false
	sender := &fakeSender{}
	applier := &fakeApplier{}
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	w := NewWatcher(cfg, applier,
		WithStore(st),
		WithNotifier(NewNotifier(sender, 42, nil)),
		WithCoverLetterWriter(fakeWriter{letter: "Dear Acme team"}),
	)

	decision := w.Handle(context.Background(), post(channelID, postText, "https://t.me/bot/app?startapp="+jobID))

	assert.Equal(t, DecisionPending, decision)
	assert.Empty(t, applier.got)

	rec, err := st.Load(context.Background(), "1da3bfc7")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, rec.Status)
	assert.Equal(t, "Dear Acme team", rec.CoverLetter)
	assert.Equal(t, "Golang Backend Engineer", rec.JobTitle)
	assert.Equal(t, store.MethodManual, rec.Method)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "Manual Approval")
}

func TestWatcher_Run(t *testing.T) {
	applier := &fakeApplier{}
	w := NewWatcher(testConfig, applier)
	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{ChannelPost: post(channelID, postText, "https://t.me/bot/app?startapp="+jobID)}
	updates <- tgbotapi.Update{Message: post(channelID, postText, "https://t.me/bot/app?startapp=other")}
	close(updates)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, w.Run(ctx, updates))
	assert.Len(t, applier.got, 1)
}

func TestNotifier(t *testing.T) {
	t.Run("escapes html", func(t *testing.T) {
		sender := &fakeSender{}
		n := NewNotifier(sender, 42, nil)

		require.NoError(t, n.NotifyFailure(Job{ID: "j1", Title: "C++ <Dev>"}, "bad & worse"))

		require.Len(t, sender.sent, 1)
		assert.Equal(t, tgbotapi.ModeHTML, sender.sent[0].ParseMode)
		assert.Contains(t, sender.sent[0].Text, "C++ &lt;Dev&gt;")
		assert.Contains(t, sender.sent[0].Text, "bad &amp; worse")
	})

	t.Run("disabled without chat", func(t *testing.T) {
		sender := &fakeSender{}
		require.NoError(t, NewNotifier(sender, 0, nil).NotifySuccess(Job{ID: "j1"}, "app-1"))
		assert.Empty(t, sender.sent)
	})

	t.Run("nil notifier is a no-op", func(t *testing.T) {
		var n *Notifier
		assert.NoError(t, n.NotifyPending(Job{ID: "j1"}, nil))
	})

	t.Run("send error is returned", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("blocked by user")}
		err := NewNotifier(sender, 42, nil).SendError(errors.New("boom"))
		assert.ErrorContains(t, err, "blocked by user")
	})
}
