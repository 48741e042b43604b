// Package workflow chains the afriwork calls of one application run:
// identity, token exchange, profile resolution and submission.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"go-afriwork-autoapply/internal/afriwork"
)

// Backend is the remote side of a run. *afriwork.Client implements it.
type Backend interface {
	Authenticate(ctx context.Context, initData, telegramID string) (afriwork.Session, error)
	ResolveUserID(ctx context.Context, sess afriwork.Session, telegramID string) (string, error)
	ResolveJobSeeker(ctx context.Context, sess afriwork.Session, userID string) (afriwork.JobSeeker, error)
	ProfilesExist(ctx context.Context, sess afriwork.Session, telegramID string) (bool, error)
	ResolvePlatformID(ctx context.Context, sess afriwork.Session, name string) (string, error)
	FetchCV(ctx context.Context, sess afriwork.Session, jobSeekerID string) (afriwork.CV, error)
	FetchProfiles(ctx context.Context, sess afriwork.Session, jobSeekerID string) (afriwork.ProfileSet, error)
	JobDetails(ctx context.Context, sess afriwork.Session, jobID string) (afriwork.JobDetails, error)
	Submit(ctx context.Context, sess afriwork.Session, rc afriwork.ResolvedContext, req afriwork.ApplicationRequest) (afriwork.ApplicationResult, error)
	Close()
}

// StageError names the step at which a run stopped.
type StageError struct {
	Stage afriwork.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage afriwork.Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Resolve runs the lookup chain strictly in order and stops at the first
// failure. The CV fetch is the only step whose failure is tolerated.
func Resolve(ctx context.Context, b Backend, sess afriwork.Session, telegramID, platformName string, log *slog.Logger) (afriwork.ResolvedContext, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	userID, err := b.ResolveUserID(ctx, sess, telegramID)
	if err != nil {
		return afriwork.ResolvedContext{}, stageErr(afriwork.StageUser, err)
	}
	log.Debug("user resolved", "user_id", userID)

	seeker, err := b.ResolveJobSeeker(ctx, sess, userID)
	if err != nil {
		return afriwork.ResolvedContext{}, stageErr(afriwork.StageJobSeeker, err)
	}
	log.Debug("job seeker resolved", "job_seeker_id", seeker.ID)

	exists, err := b.ProfilesExist(ctx, sess, telegramID)
	if err != nil {
		return afriwork.ResolvedContext{}, stageErr(afriwork.StageProfiles, err)
	}
	if !exists {
		return afriwork.ResolvedContext{}, stageErr(afriwork.StageProfiles,
			&afriwork.ResolutionFailure{Stage: afriwork.StageProfiles, Reason: "no job seeker profiles found"})
	}

	platformID, err := b.ResolvePlatformID(ctx, sess, platformName)
	if err != nil {
		return afriwork.ResolvedContext{}, stageErr(afriwork.StagePlatform, err)
	}

	if cv, err := b.FetchCV(ctx, sess, seeker.ID); err != nil {
		log.Warn("cv lookup failed, continuing", "error", err)
	} else {
		log.Debug("cv found", "first_name", cv.FirstName)
	}

	set, err := b.FetchProfiles(ctx, sess, seeker.ID)
	if err != nil {
		return afriwork.ResolvedContext{}, stageErr(afriwork.StageProfileList, err)
	}

	defaultProfile := set.DefaultProfileID
	if defaultProfile == "" {
		defaultProfile = seeker.DefaultProfileID
	}

	return afriwork.ResolvedContext{
		UserID:           userID,
		JobSeekerID:      seeker.ID,
		DefaultProfileID: defaultProfile,
		Profiles:         set.Profiles,
		PlatformID:       platformID,
	}, nil
}
