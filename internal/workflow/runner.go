package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/identity"
	"go-afriwork-autoapply/internal/store"
)

// FallbackCoverLetter is sent when no letter was supplied and none could be generated.
const FallbackCoverLetter = "I am writing to express my strong interest in this position. " +
	"With my technical skills and experience in software development, I am confident I would be " +
	"a valuable addition to your team. I am eager to contribute to your organization and grow " +
	"professionally. Thank you for considering my application."

// Outcome labels passed to Recorder.ApplicationOutcome.
const (
	OutcomeSubmitted      = "submitted"
	OutcomeAlreadyApplied = "already_applied"
	OutcomeFailed         = "failed"
)

// BackendFactory returns a fresh Backend for one run.
type BackendFactory func() Backend

type CoverLetterWriter interface {
	WriteCoverLetter(ctx context.Context, jobDescription string) (string, error)
}

type Recorder interface {
	ApplicationOutcome(outcome string)
	StageFailure(stage string)
}

// Runner applies to jobs on behalf of the single identity it was built with.
type Runner struct {
	initData       string
	newBackend     BackendFactory
	platformName   string
	allowMalformed bool
	store          store.Store
	writer         CoverLetterWriter
	recorder       Recorder
	clock          clockwork.Clock
	log            *slog.Logger
}

type Option func(*Runner)

func WithStore(s store.Store) Option { return func(r *Runner) { r.store = s } }

func WithCoverLetterWriter(w CoverLetterWriter) Option { return func(r *Runner) { r.writer = w } }

func WithRecorder(rec Recorder) Option { return func(r *Runner) { r.recorder = rec } }

func WithClock(c clockwork.Clock) Option { return func(r *Runner) { r.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = l } }

func WithPlatformName(name string) Option { return func(r *Runner) { r.platformName = name } }

// AllowMalformedIdentity makes an unreadable init data blob a warning
// instead of a failure; the run continues with an empty Telegram id.
func AllowMalformedIdentity(allow bool) Option {
	return func(r *Runner) { r.allowMalformed = allow }
}

func NewRunner(initData string, newBackend BackendFactory, opts ...Option) *Runner {
	r := &Runner{
		initData:     initData,
		newBackend:   newBackend,
		platformName: afriwork.DefaultPlatformName,
		clock:        clockwork.NewRealClock(),
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request is one application as asked for by a caller. An empty
// Application.ProfileID means the default profile; an empty cover letter
// means one is generated from the job description.
type Request struct {
	Application     afriwork.ApplicationRequest
	JobTitle        string
	Company         string
	JobDescription  string
	MatchedKeywords []string
	Method          store.Method
}

type Outcome struct {
	Result      afriwork.ApplicationResult
	Context     afriwork.ResolvedContext
	Job         afriwork.JobDetails
	CoverLetter string
	Record      store.Record
}

// Apply runs the whole chain for req. Failures come back as *StageError.
// Once the job id is known the attempt is recorded in the store whether it
// succeeded or not.
func (r *Runner) Apply(ctx context.Context, req Request) (Outcome, error) {
	jobID := strings.TrimSpace(req.Application.JobID)
	if jobID == "" {
		err := stageErr(afriwork.StageValidation, &afriwork.ValidationFailure{Field: "job_id", Reason: "job id is required"})
		r.count(err)
		return Outcome{}, err
	}
	req.Application.JobID = jobID
	log := r.log.With("job_id", jobID)

	out, err := r.apply(ctx, req, log)
	out.Record = r.record(ctx, req, out, err, log)
	r.count(err)
	if err != nil {
		log.Error("application failed", "error", err)
		return out, err
	}
	log.Info("application complete", "application_id", out.Result.ApplicationID)
	return out, nil
}

func (r *Runner) apply(ctx context.Context, req Request, log *slog.Logger) (Outcome, error) {
	var out Outcome

	if letter := req.Application.CoverLetter; letter != "" {
		if err := afriwork.ValidateCoverLetter(letter); err != nil {
			return out, stageErr(afriwork.StageValidation, err)
		}
	}

	var telegramID string
	if r.allowMalformed {
		telegramID = identity.ExtractLenient(r.initData)
		if telegramID == "" {
			log.Warn("init data has no readable user id, continuing")
		}
	} else {
		id, err := identity.Extract(r.initData)
		if err != nil {
			return out, stageErr(afriwork.StageIdentity, err)
		}
		telegramID = id
	}

	b := r.newBackend()
	defer b.Close()

	sess, err := b.Authenticate(ctx, r.initData, telegramID)
	if err != nil {
		return out, stageErr(afriwork.StageAuth, err)
	}

	rc, err := Resolve(ctx, b, sess, telegramID, r.platformName, log)
	if err != nil {
		return out, err
	}
	out.Context = rc

	if details, err := b.JobDetails(ctx, sess, req.Application.JobID); err != nil {
		log.Warn("job details unavailable", "error", err)
	} else {
		out.Job = details
		log.Info("job found", "title", details.Title, "company", details.Company)
	}

	out.CoverLetter = r.coverLetter(ctx, req, out.Job, log)

	profileID, err := afriwork.SelectProfile(rc, req.Application.ProfileID)
	if err != nil {
		return out, stageErr(afriwork.StageValidation, err)
	}

	application := req.Application
	application.ProfileID = profileID
	application.CoverLetter = out.CoverLetter
	if err := afriwork.ValidateRequest(application); err != nil {
		return out, stageErr(afriwork.StageValidation, err)
	}

	result, err := b.Submit(ctx, sess, rc, application)
	if err != nil {
		return out, stageErr(afriwork.StageSubmit, err)
	}
	out.Result = result
	return out, nil
}

// coverLetter returns the caller's letter, or a generated one cut to the
// backend limit, or FallbackCoverLetter.
func (r *Runner) coverLetter(ctx context.Context, req Request, job afriwork.JobDetails, log *slog.Logger) string {
	if req.Application.CoverLetter != "" {
		return req.Application.CoverLetter
	}
	if r.writer == nil {
		return FallbackCoverLetter
	}

	description := req.JobDescription
	if description == "" {
		description = job.Description
	}
	letter, err := r.writer.WriteCoverLetter(ctx, description)
	if err != nil || strings.TrimSpace(letter) == "" {
		log.Warn("cover letter generation failed, using fallback", "error", err)
		return FallbackCoverLetter
	}
	return afriwork.TruncateCoverLetter(letter)
}

func (r *Runner) record(ctx context.Context, req Request, out Outcome, runErr error, log *slog.Logger) store.Record {
	status := store.StatusSubmitted
	if runErr != nil {
		status = store.StatusFailed
	}

	rec := store.NewRecord(req.Application.JobID, status, r.clock.Now())
	rec.JobTitle = firstNonEmpty(req.JobTitle, out.Job.Title)
	rec.Company = firstNonEmpty(req.Company, out.Job.Company)
	rec.JobDescription = req.JobDescription
	rec.MatchedKeywords = req.MatchedKeywords
	rec.ProfileID = firstNonEmpty(req.Application.ProfileID, out.Context.DefaultProfileID)
	rec.CoverLetter = out.CoverLetter
	rec.ApplicationID = out.Result.ApplicationID
	rec.Method = req.Method
	if rec.Method == "" {
		rec.Method = store.MethodAuto
	}
	if req.Application.Handle != nil {
		rec.Handle = *req.Application.Handle
	}
	if req.Application.ReferralID != nil {
		rec.ReferralID = *req.Application.ReferralID
	}
	if runErr != nil {
		rec.Error = afriwork.Reason(runErr)
	}

	if r.store == nil {
		return rec
	}
	if runErr != nil {
		if prev, err := r.store.Load(ctx, rec.Key); err == nil && prev.Status == store.StatusSubmitted {
			// A failed retry never replaces a submitted application.
			prev.LastError = rec.Error
			rec = prev
		}
	}
	if err := r.store.Save(ctx, rec.Key, rec); err != nil {
		log.Error("failed to save application record", "key", rec.Key, "error", err)
	}
	return rec
}

func (r *Runner) count(err error) {
	if r.recorder == nil {
		return
	}
	if err == nil {
		r.recorder.ApplicationOutcome(OutcomeSubmitted)
		return
	}
	if errors.Is(err, afriwork.ErrAlreadyApplied) {
		r.recorder.ApplicationOutcome(OutcomeAlreadyApplied)
	} else {
		r.recorder.ApplicationOutcome(OutcomeFailed)
	}
	var se *StageError
	if errors.As(err, &se) {
		r.recorder.StageFailure(string(se.Stage))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
