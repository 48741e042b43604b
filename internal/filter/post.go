package filter

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength bounds the description taken from a channel post.
const MaxDescriptionLength = 1000

// ExtractJobID returns the job id carried by the first button URL with a
// startapp parameter, or "" when there is none.
func ExtractJobID(urls []string) string {
	for _, raw := range urls {
		_, after, ok := strings.Cut(raw, "startapp=")
		if !ok {
			continue
		}
		after, _, _ = strings.Cut(after, "&")
		after, _, _ = strings.Cut(after, "#")
		if id, err := url.QueryUnescape(after); err == nil {
			after = id
		}
		if id := strings.TrimSpace(after); id != "" {
			return id
		}
	}
	return ""
}

// Title is the first line of the post without a "Job Title:" label.
func Title(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "Job Title:")
	return strings.TrimSpace(line)
}

// Description returns at most MaxDescriptionLength characters of the post.
func Description(text string) string {
	if utf8.RuneCountInString(text) <= MaxDescriptionLength {
		return text
	}
	return string([]rune(text)[:MaxDescriptionLength])
}
