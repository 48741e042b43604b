package afriwork

// Session is the bearer token issued for one run.
type Session struct {
	Token string
	// SubjectID is the `sub` claim of the token; empty when it could not be decoded.
	SubjectID string
}

type JobSeeker struct {
	ID               string
	DefaultProfileID string
}

type Profile struct {
	ID    string `json:"id"`
	Title string `json:"professional_title"`
}

type ProfileSet struct {
	Profiles         []Profile
	DefaultProfileID string
}

// ResolvedContext holds the internal identifiers an application needs.
// It is only ever built whole, after every lookup succeeded.
type ResolvedContext struct {
	UserID           string
	JobSeekerID      string
	DefaultProfileID string
	Profiles         []Profile
	PlatformID       string
}

// HasProfile reports whether id is one of the job seeker's profiles.
func (rc ResolvedContext) HasProfile(id string) bool {
	if id == rc.DefaultProfileID {
		return true
	}
	for _, p := range rc.Profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (rc ResolvedContext) complete() bool {
	return rc.UserID != "" && rc.JobSeekerID != "" && rc.PlatformID != ""
}

// ApplicationRequest is the caller supplied part of an application.
type ApplicationRequest struct {
	JobID       string  `json:"job_id"`
	ProfileID   string  `json:"profile_id"`
	CoverLetter string  `json:"cover_letter"`
	Handle      *string `json:"telegram_username,omitempty"`
	ReferralID  *string `json:"share_id,omitempty"`
}

type ApplicationResult struct {
	ApplicationID string `json:"application_id"`
}

type CV struct {
	URL       string
	FirstName string
}

// JobDetails is informational only; nothing in the chain gates on it.
type JobDetails struct {
	ID              string
	Title           string
	Company         string
	City            string
	Country         string
	Location        string
	JobType         string
	JobSite         string
	ExperienceLevel string
	ApprovalStatus  string
	Deadline        string
	VacancyCount    int
	Sectors         []string
	Description     string
}
