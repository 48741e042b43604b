package afriwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser only decodes token segments; tokens are never verified here.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Authenticate exchanges the init data for a bearer token. It never retries.
func (c *Client) Authenticate(ctx context.Context, initData, telegramID string) (Session, error) {
	header := c.commonHeaders("application/json")
	header.Set("X-Bot-Type", "APPLICANT")
	header.Set("X-Telegram-Init-Data", initData)

	status, body, err := c.post(ctx, c.authURL+validatePath, header, map[string]string{"telegram_id": telegramID})
	if err != nil {
		return Session{}, &AuthFailure{Status: status, Reason: "validate request failed", Raw: body, Err: err}
	}
	if status != http.StatusOK {
		return Session{}, &AuthFailure{Status: status, Reason: fmt.Sprintf("validate request returned status %d", status), Raw: body}
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Session{}, &AuthFailure{Status: status, Reason: "failed to decode validate response", Raw: body, Err: err}
	}
	if resp.Token == "" {
		return Session{}, &AuthFailure{Status: status, Reason: "validate response has no token", Raw: body}
	}

	sess := Session{Token: resp.Token, SubjectID: SubjectFromToken(resp.Token)}
	if sess.SubjectID == "" {
		c.log.Debug("token subject could not be decoded")
	}
	c.log.Info("session established", "telegram_id", telegramID, "subject", sess.SubjectID)
	return sess, nil
}

// SubjectFromToken decodes the payload segment of a header.payload.signature
// token and returns its `sub` claim. It returns "" on any failure.
func SubjectFromToken(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return ""
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return ""
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
