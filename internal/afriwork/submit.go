package afriwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Submit sends the ApplyToJob mutation. It requires an established session
// and a complete ResolvedContext; the caller's request is validated first.
func (c *Client) Submit(ctx context.Context, sess Session, rc ResolvedContext, req ApplicationRequest) (ApplicationResult, error) {
	if sess.Token == "" {
		return ApplicationResult{}, &SubmissionFailed{Reason: "no session established"}
	}
	if !rc.complete() {
		return ApplicationResult{}, &SubmissionFailed{Reason: "resolved context is incomplete"}
	}
	if err := ValidateRequest(req); err != nil {
		return ApplicationResult{}, err
	}

	vars := map[string]any{
		"application":        map[string]any{"cover_letter": req.CoverLetter},
		"job_id":             req.JobID,
		"origin_platform_id": rc.PlatformID,
		"share_id":           req.ReferralID,
		"telegramUsername":   req.Handle,
		"profile_id":         req.ProfileID,
	}

	status, body, err := c.execute(ctx, sess, opApply, vars)
	if err != nil {
		return ApplicationResult{}, &SubmissionFailed{Reason: "apply request failed", Status: status, Raw: body, Err: err}
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ApplicationResult{}, &SubmissionFailed{Reason: "malformed apply response", Status: status, Raw: body, Err: err}
	}
	if msg := resp.firstError(); msg != "" {
		return ApplicationResult{}, &SubmissionFailed{Reason: msg, Status: status, Raw: body}
	}
	if status != http.StatusOK {
		return ApplicationResult{}, &SubmissionFailed{Reason: fmt.Sprintf("apply returned status %d", status), Status: status, Raw: body}
	}

	var result ApplicationResult
	if raw, ok := resp.Data[opApply.key]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &result); err != nil {
			return ApplicationResult{}, &SubmissionFailed{Reason: "unexpected apply_to_job shape", Status: status, Raw: body, Err: err}
		}
	}
	if result.ApplicationID == "" {
		return ApplicationResult{}, &SubmissionFailed{Reason: "response carried no application id", Status: status, Raw: body}
	}

	c.log.Info("application submitted", "job_id", req.JobID, "application_id", result.ApplicationID)
	return result, nil
}
