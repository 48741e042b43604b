package afriwork

import (
	"bytes"
	"context"
	"encoding/json"
)

type idRow struct {
	ID string `json:"id"`
}

// ResolveUserID looks the user up by Telegram id.
func (c *Client) ResolveUserID(ctx context.Context, sess Session, telegramID string) (string, error) {
	var rows []idRow
	r, err := c.resolve(ctx, sess, opFetchUser, map[string]any{"telegram_id": telegramID}, &rows)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return "", r.fail(StageUser, "user not found on Afriwork", nil)
	}
	return rows[0].ID, nil
}

func (c *Client) ResolveJobSeeker(ctx context.Context, sess Session, userID string) (JobSeeker, error) {
	var rows []struct {
		ID               string `json:"id"`
		DefaultProfileID string `json:"default_profile_id"`
	}
	r, err := c.resolve(ctx, sess, opJobSeeker, map[string]any{"user_id": userID}, &rows)
	if err != nil {
		return JobSeeker{}, err
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return JobSeeker{}, r.fail(StageJobSeeker, "job seeker profile not found", nil)
	}
	return JobSeeker{ID: rows[0].ID, DefaultProfileID: rows[0].DefaultProfileID}, nil
}

// ProfilesExist reports whether any published profile exists for the identity.
// Draft profiles do not count.
func (c *Client) ProfilesExist(ctx context.Context, sess Session, telegramID string) (bool, error) {
	var rows []idRow
	if _, err := c.resolve(ctx, sess, opProfilesExist, map[string]any{"telegram_id": telegramID}, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (c *Client) ResolvePlatformID(ctx context.Context, sess Session, name string) (string, error) {
	if name == "" {
		name = DefaultPlatformName
	}
	// The mini-app asks for BOT with a fixed document and no variables.
	op, vars := opPlatformBot, map[string]any{}
	if name != DefaultPlatformName {
		op, vars = opPlatform, map[string]any{"name": name}
	}
	var rows []idRow
	r, err := c.resolve(ctx, sess, op, vars, &rows)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return "", r.fail(StagePlatform, "platform "+name+" not found", nil)
	}
	return rows[0].ID, nil
}

func (c *Client) FetchCV(ctx context.Context, sess Session, jobSeekerID string) (CV, error) {
	var rows []struct {
		CV   string `json:"cv"`
		User struct {
			FirstName string `json:"first_name"`
		} `json:"user"`
	}
	r, err := c.resolve(ctx, sess, opCV, map[string]any{"id": jobSeekerID}, &rows)
	if err != nil {
		return CV{}, err
	}
	if len(rows) == 0 {
		return CV{}, r.fail(StageCV, "no cv for job seeker", nil)
	}
	return CV{URL: rows[0].CV, FirstName: rows[0].User.FirstName}, nil
}

// FetchProfiles returns the job seeker's profiles and current default profile.
func (c *Client) FetchProfiles(ctx context.Context, sess Session, jobSeekerID string) (ProfileSet, error) {
	var seeker struct {
		Profiles         []Profile `json:"profiles"`
		DefaultProfileID string    `json:"default_profile_id"`
	}
	if _, err := c.resolve(ctx, sess, opProfiles, map[string]any{"job_seeker_id": jobSeekerID}, &seeker); err != nil {
		return ProfileSet{}, err
	}
	return ProfileSet{Profiles: seeker.Profiles, DefaultProfileID: seeker.DefaultProfileID}, nil
}

type jobDetailsRow struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ApprovalStatus  string `json:"approval_status"`
	JobType         string `json:"job_type"`
	JobSite         string `json:"job_site"`
	Location        string `json:"location"`
	Deadline        string `json:"deadline"`
	VacancyCount    int    `json:"vacancy_count"`
	ExperienceLevel string `json:"experience_level"`
	Description     string `json:"description"`
	Entity          struct {
		Name string `json:"name"`
	} `json:"entity"`
	Sectors []struct {
		Sector struct {
			Name string `json:"name"`
		} `json:"sector"`
	} `json:"sectors"`
	City struct {
		En      string `json:"en"`
		Country struct {
			En string `json:"en"`
		} `json:"country"`
	} `json:"city"`
}

// JobDetails fetches the public description of a job. The backend has been
// seen returning both a single object and a one element list.
func (c *Client) JobDetails(ctx context.Context, sess Session, jobID string) (JobDetails, error) {
	var raw json.RawMessage
	r, err := c.resolve(ctx, sess, opJobDetails, map[string]any{"id": jobID}, &raw)
	if err != nil {
		return JobDetails{}, err
	}

	var row jobDetailsRow
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []jobDetailsRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return JobDetails{}, r.fail(StageJobDetails, "unexpected view_job_details shape", err)
		}
		if len(rows) == 0 {
			return JobDetails{}, r.fail(StageJobDetails, "job "+jobID+" not found", nil)
		}
		row = rows[0]
	} else if err := json.Unmarshal(trimmed, &row); err != nil {
		return JobDetails{}, r.fail(StageJobDetails, "unexpected view_job_details shape", err)
	}

	details := JobDetails{
		ID:              row.ID,
		Title:           row.Title,
		Company:         row.Entity.Name,
		City:            row.City.En,
		Country:         row.City.Country.En,
		Location:        row.Location,
		JobType:         row.JobType,
		JobSite:         row.JobSite,
		ExperienceLevel: row.ExperienceLevel,
		ApprovalStatus:  row.ApprovalStatus,
		Deadline:        row.Deadline,
		VacancyCount:    row.VacancyCount,
		Description:     row.Description,
	}
	for _, s := range row.Sectors {
		details.Sectors = append(details.Sectors, s.Sector.Name)
	}
	return details, nil
}
