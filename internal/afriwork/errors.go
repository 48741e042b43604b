package afriwork

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names a step of the application chain. Failures report the stage they
// happened in so callers can tell the user where the chain stopped.
type Stage string

const (
	StageIdentity    Stage = "identity"
	StageAuth        Stage = "auth"
	StageUser        Stage = "user"
	StageJobSeeker   Stage = "job_seeker"
	StageProfiles    Stage = "profiles"
	StagePlatform    Stage = "platform"
	StageCV          Stage = "cv"
	StageProfileList Stage = "profile_list"
	StageJobDetails  Stage = "job_details"
	StageValidation  Stage = "validation"
	StageSubmit      Stage = "submit"
)

// ErrAlreadyApplied matches submission failures caused by a duplicate application.
var ErrAlreadyApplied = errors.New("already applied to this job")

// AuthFailure is returned when the init data could not be exchanged for a token.
type AuthFailure struct {
	Status int
	Reason string
	Raw    []byte
	Err    error
}

func (e *AuthFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed: %s: %v", e.Reason, e.Err)
	}
	return "auth failed: " + e.Reason
}

func (e *AuthFailure) Unwrap() error { return e.Err }

// ResolutionFailure is returned when a lookup query did not yield the data the
// next step depends on.
type ResolutionFailure struct {
	Stage  Stage
	Reason string
	Status int
	Raw    []byte
	Err    error
}

func (e *ResolutionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.Stage, e.Reason)
}

func (e *ResolutionFailure) Unwrap() error { return e.Err }

// ValidationFailure reports caller supplied content the backend would reject.
type ValidationFailure struct {
	Field  string
	Reason string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SubmissionFailed is returned by Submit. Reason is the first error message
// reported by the backend when there is one; Raw keeps the response body.
type SubmissionFailed struct {
	Reason string
	Status int
	Raw    []byte
	Err    error
}

func (e *SubmissionFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission failed: %s: %v", e.Reason, e.Err)
	}
	return "submission failed: " + e.Reason
}

func (e *SubmissionFailed) Unwrap() error { return e.Err }

// Is reports uniqueness violations as ErrAlreadyApplied.
func (e *SubmissionFailed) Is(target error) bool {
	if target != ErrAlreadyApplied {
		return false
	}
	return strings.Contains(strings.ToLower(e.Reason), "uniqueness")
}

// Reason returns the human readable failure reason for err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var submitErr *SubmissionFailed
	if errors.As(err, &submitErr) {
		if errors.Is(submitErr, ErrAlreadyApplied) {
			return "You have already applied to this job."
		}
		return submitErr.Reason
	}
	var validationErr *ValidationFailure
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	var resolveErr *ResolutionFailure
	if errors.As(err, &resolveErr) {
		return resolveErr.Error()
	}
	var authErr *AuthFailure
	if errors.As(err, &authErr) {
		return authErr.Error()
	}
	return err.Error()
}
