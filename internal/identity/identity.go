// Package identity reads the Telegram Mini App init data that the Afriwork
// backend accepts as proof of who the applicant is.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformedIdentity is returned when the init data has no usable user id.
var ErrMalformedIdentity = errors.New("malformed identity")

// Extract returns the Telegram user id carried in the `user=<json>` field of
// the (URL-encoded) init data.
func Extract(initData string) (string, error) {
	decoded, err := url.PathUnescape(initData)
	if err != nil {
		decoded = initData
	}

	_, rest, found := strings.Cut(decoded, "user=")
	if !found {
		return "", fmt.Errorf("%w: no user field", ErrMalformedIdentity)
	}
	userPart, _, _ := strings.Cut(rest, "&")

	dec := json.NewDecoder(strings.NewReader(userPart))
	dec.UseNumber()
	var user map[string]any
	if err := dec.Decode(&user); err != nil {
		return "", fmt.Errorf("%w: user field is not a json object: %v", ErrMalformedIdentity, err)
	}

	switch id := user["id"].(type) {
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return "", fmt.Errorf("%w: id %q is not an integer", ErrMalformedIdentity, id.String())
		}
		return strconv.FormatInt(n, 10), nil
	case string:
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return "", fmt.Errorf("%w: id %q is not an integer", ErrMalformedIdentity, id)
		}
		return id, nil
	case nil:
		return "", fmt.Errorf("%w: user has no id", ErrMalformedIdentity)
	default:
		return "", fmt.Errorf("%w: unexpected id type %T", ErrMalformedIdentity, id)
	}
}

// ExtractLenient behaves like Extract but swallows the error and returns "".
// Downstream calls then run with an empty id and fail remotely.
func ExtractLenient(initData string) string {
	id, err := Extract(initData)
	if err != nil {
		return ""
	}
	return id
}
