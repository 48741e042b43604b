package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/dedup"
	"go-afriwork-autoapply/internal/filter"
	"go-afriwork-autoapply/internal/store"
	"go-afriwork-autoapply/internal/workflow"
)

// Decisions returned by Watcher.Handle.
const (
	DecisionIgnored   = "ignored"
	DecisionNoJobID   = "no_job_id"
	DecisionNoMatch   = "no_match"
	DecisionDuplicate = "duplicate"
	DecisionApplied   = "applied"
	DecisionFailed    = "failed"
	DecisionPending   = "pending"
)

var bareChannelID = regexp.MustCompile(`^\d+$`)

// ParseChannelID turns a configured channel id into a Bot API chat id. Bare
// ids of 10 or more digits get the "-100" channel prefix.
func ParseChannelID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if bareChannelID.MatchString(raw) && len(raw) >= 10 {
		raw = "-100" + raw
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel id %q: %w", raw, err)
	}
	return id, nil
}

type Applier interface {
	Apply(ctx context.Context, req workflow.Request) (workflow.Outcome, error)
}

// PostCounter receives one call per handled post.
type PostCounter interface {
	ChannelPost(decision string)
}

type WatcherConfig struct {
	ChannelID      int64
	Keywords       []string
	MinimumMatches int
	AutoApply      bool
	// Handle is the Telegram username sent with every application.
	Handle string
}

// Watcher turns job channel posts into applications, or into pending
// records when auto-apply is off.
type Watcher struct {
	cfg      WatcherConfig
	applier  Applier
	writer   workflow.CoverLetterWriter
	store    store.Store
	notifier *Notifier
	seen     *dedup.JobCache
	counter  PostCounter
	clock    clockwork.Clock
	log      *slog.Logger
}

type WatcherOption func(*Watcher)

func WithCoverLetterWriter(w workflow.CoverLetterWriter) WatcherOption {
	return func(wt *Watcher) { wt.writer = w }
}

func WithStore(s store.Store) WatcherOption { return func(w *Watcher) { w.store = s } }

func WithNotifier(n *Notifier) WatcherOption { return func(w *Watcher) { w.notifier = n } }

func WithSeenCache(c *dedup.JobCache) WatcherOption { return func(w *Watcher) { w.seen = c } }

func WithCounter(c PostCounter) WatcherOption { return func(w *Watcher) { w.counter = c } }

func WithClock(c clockwork.Clock) WatcherOption { return func(w *Watcher) { w.clock = c } }

func WithLogger(l *slog.Logger) WatcherOption { return func(w *Watcher) { w.log = l } }

func NewWatcher(cfg WatcherConfig, applier Applier, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		cfg:     cfg,
		applier: applier,
		clock:   clockwork.NewRealClock(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.seen == nil {
		w.seen = dedup.NewJobCache("", w.clock, w.log)
	}
	return w
}

// Run handles channel posts from updates until ctx is done or the channel closes.
func (w *Watcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	w.log.Info("watching channel", "channel_id", w.cfg.ChannelID, "keywords", len(w.cfg.Keywords),
		"minimum_matches", w.cfg.MinimumMatches, "auto_apply", w.cfg.AutoApply)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.ChannelPost != nil {
				w.Handle(ctx, update.ChannelPost)
			}
		}
	}
}

// Handle processes one post and returns what was done with it.
func (w *Watcher) Handle(ctx context.Context, msg *tgbotapi.Message) string {
	decision := w.handle(ctx, msg)
	if w.counter != nil {
		w.counter.ChannelPost(decision)
	}
	return decision
}

func (w *Watcher) handle(ctx context.Context, msg *tgbotapi.Message) string {
	if msg == nil || msg.Chat == nil || msg.Chat.ID != w.cfg.ChannelID {
		return DecisionIgnored
	}

	jobID := filter.ExtractJobID(buttonURLs(msg))
	if jobID == "" {
		w.log.Warn("could not extract job id from post, skipping", "message_id", msg.MessageID)
		return DecisionNoJobID
	}
	log := w.log.With("job_id", jobID)

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	match := filter.Match(text, w.cfg.Keywords, w.cfg.MinimumMatches)
	log.Info("keyword analysis", "found", match.Found, "count", match.Count)
	if !match.Matches {
		return DecisionNoMatch
	}

	if w.seen.MarkSeen(jobID) {
		log.Info("job already handled, skipping")
		return DecisionDuplicate
	}

	job := Job{ID: jobID, Title: filter.Title(text)}
	description := filter.Description(text)

	if !w.cfg.AutoApply {
		return w.queue(ctx, job, description, match.Found, log)
	}

	req := workflow.Request{
		Application:     afriwork.ApplicationRequest{JobID: jobID},
		JobTitle:        job.Title,
		JobDescription:  description,
		MatchedKeywords: match.Found,
		Method:          store.MethodAuto,
	}
	if w.cfg.Handle != "" {
		handle := w.cfg.Handle
		req.Application.Handle = &handle
	}

	out, err := w.applier.Apply(ctx, req)
	job.Title = firstNonEmpty(out.Job.Title, job.Title)
	job.Company = out.Job.Company
	if err != nil {
		if nerr := w.notifier.NotifyFailure(job, afriwork.Reason(err)); nerr != nil {
			log.Warn("failed to send notification", "error", nerr)
		}
		return DecisionFailed
	}
	if nerr := w.notifier.NotifySuccess(job, out.Result.ApplicationID); nerr != nil {
		log.Warn("failed to send notification", "error", nerr)
	}
	return DecisionApplied
}

// queue stores a pending record with a drafted cover letter.
func (w *Watcher) queue(ctx context.Context, job Job, description string, matched []string, log *slog.Logger) string {
	letter := workflow.FallbackCoverLetter
	if w.writer != nil {
		if generated, err := w.writer.WriteCoverLetter(ctx, description); err != nil {
			log.Warn("cover letter generation failed, using fallback", "error", err)
		} else if strings.TrimSpace(generated) != "" {
			letter = afriwork.TruncateCoverLetter(generated)
		}
	}

	rec := store.NewRecord(job.ID, store.StatusPending, w.clock.Now())
	rec.JobTitle = job.Title
	rec.JobDescription = description
	rec.MatchedKeywords = matched
	rec.CoverLetter = letter
	rec.Method = store.MethodManual
	rec.Handle = w.cfg.Handle

	if w.store != nil {
		if err := w.store.Save(ctx, rec.Key, rec); err != nil {
			log.Error("failed to queue pending application", "error", err)
			w.seen.Forget(job.ID)
			return DecisionFailed
		}
	}
	if err := w.notifier.NotifyPending(job, matched); err != nil {
		log.Warn("failed to send notification", "error", err)
	}
	log.Info("job added to pending queue")
	return DecisionPending
}

func buttonURLs(msg *tgbotapi.Message) []string {
	if msg.ReplyMarkup == nil {
		return nil
	}
	var urls []string
	for _, row := range msg.ReplyMarkup.InlineKeyboard {
		for _, button := range row {
			if button.URL != nil {
				urls = append(urls, *button.URL)
			}
		}
	}
	return urls
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
