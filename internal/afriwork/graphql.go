package afriwork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphqlError             `json:"errors"`
}

func (r graphqlResponse) firstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

func (c *Client) graphqlHeaders(sess Session, role Role) http.Header {
	h := c.commonHeaders("application/graphql-response+json, application/graphql+json, application/json")
	h.Set("X-Hasura-Role", string(role))
	if sess.Token != "" {
		h.Set("Authorization", "Bearer "+sess.Token)
	}
	return h
}

// execute posts one operation to the GraphQL endpoint.
func (c *Client) execute(ctx context.Context, sess Session, op operation, vars map[string]any) (int, []byte, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	started := time.Now()
	status, body, err := c.post(ctx, c.apiURL+graphqlPath, c.graphqlHeaders(sess, op.role), graphqlRequest{
		OperationName: op.name,
		Query:         op.query,
		Variables:     vars,
	})
	if c.observe != nil {
		c.observe(op.name, time.Since(started))
	}
	c.log.Debug("graphql operation", "operation", op.name, "role", op.role, "status", status)
	return status, body, err
}

// reply is the raw answer to one operation, kept so failures found by the
// caller after decoding still carry the body.
type reply struct {
	status int
	body   []byte
}

func (r reply) fail(stage Stage, reason string, err error) *ResolutionFailure {
	return &ResolutionFailure{Stage: stage, Reason: reason, Status: r.status, Raw: r.body, Err: err}
}

// resolve runs a read operation and decodes data.<op.key> into out. A
// transport error, a non-200 status or a missing/null key is a
// ResolutionFailure for op.stage.
func (c *Client) resolve(ctx context.Context, sess Session, op operation, vars map[string]any, out any) (reply, error) {
	status, body, err := c.execute(ctx, sess, op, vars)
	r := reply{status: status, body: body}
	if err != nil {
		return r, r.fail(op.stage, op.name+" request failed", err)
	}
	if status != http.StatusOK {
		return r, r.fail(op.stage, fmt.Sprintf("%s returned status %d", op.name, status), nil)
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return r, r.fail(op.stage, "malformed "+op.name+" response", err)
	}

	raw, ok := resp.Data[op.key]
	if !ok || isNull(raw) {
		reason := op.name + " response has no data." + op.key
		if msg := resp.firstError(); msg != "" {
			reason += ": " + msg
		}
		return r, r.fail(op.stage, reason, nil)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return r, r.fail(op.stage, "unexpected data."+op.key+" shape", err)
	}
	return r, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
