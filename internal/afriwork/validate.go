package afriwork

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCoverLetterLength is the backend limit, in characters.
const MaxCoverLetterLength = 1000

func ValidateCoverLetter(letter string) error {
	if strings.TrimSpace(letter) == "" {
		return &ValidationFailure{Field: "cover_letter", Reason: "cover letter cannot be empty"}
	}
	if n := utf8.RuneCountInString(letter); n > MaxCoverLetterLength {
		return &ValidationFailure{
			Field:  "cover_letter",
			Reason: fmt.Sprintf("cover letter too long (%d characters), maximum is %d", n, MaxCoverLetterLength),
		}
	}
	return nil
}

// ValidateRequest checks everything Submit needs from the caller.
func ValidateRequest(req ApplicationRequest) error {
	if strings.TrimSpace(req.JobID) == "" {
		return &ValidationFailure{Field: "job_id", Reason: "job id is required"}
	}
	if strings.TrimSpace(req.ProfileID) == "" {
		return &ValidationFailure{Field: "profile_id", Reason: "no profile selected"}
	}
	return ValidateCoverLetter(req.CoverLetter)
}

// SelectProfile picks the profile to apply with: the requested one when it
// belongs to the job seeker, the default profile when none was requested.
func SelectProfile(rc ResolvedContext, requested string) (string, error) {
	if requested == "" {
		if rc.DefaultProfileID == "" {
			return "", &ValidationFailure{Field: "profile_id", Reason: "no profile selected and no default profile"}
		}
		return rc.DefaultProfileID, nil
	}
	if !rc.HasProfile(requested) {
		return "", &ValidationFailure{Field: "profile_id", Reason: fmt.Sprintf("profile %s does not belong to this job seeker", requested)}
	}
	return requested, nil
}

// TruncateCoverLetter shortens letter to the backend limit, marking the cut with "...".
func TruncateCoverLetter(letter string) string {
	letter = strings.TrimSpace(letter)
	if utf8.RuneCountInString(letter) <= MaxCoverLetterLength {
		return letter
	}
	runes := []rune(letter)
	return string(runes[:MaxCoverLetterLength-3]) + "..."
}
