package afriwork

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoverLetter(t *testing.T) {
	tests := []struct {
		name    string
		letter  string
		wantErr bool
	}{
		{name: "empty", letter: "", wantErr: true},
		{name: "whitespace only", letter: "  \n\t ", wantErr: true},
		{name: "single char", letter: "x", wantErr: false},
		{name: "exactly at limit", letter: strings.Repeat("a", 1000), wantErr: false},
		{name: "one over limit", letter: strings.Repeat("a", 1001), wantErr: true},
		{name: "multibyte counted as characters", letter: strings.Repeat("ሰ", 1000), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoverLetter(tt.letter)
			if tt.wantErr {
				var validationErr *ValidationFailure
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "cover_letter", validationErr.Field)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       ApplicationRequest
		wantField string
	}{
		{name: "valid", req: ApplicationRequest{JobID: "j", ProfileID: "p", CoverLetter: "hi"}},
		{name: "missing job", req: ApplicationRequest{ProfileID: "p", CoverLetter: "hi"}, wantField: "job_id"},
		{name: "missing profile", req: ApplicationRequest{JobID: "j", CoverLetter: "hi"}, wantField: "profile_id"},
		{name: "missing letter", req: ApplicationRequest{JobID: "j", ProfileID: "p"}, wantField: "cover_letter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationFailure
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestSelectProfile(t *testing.T) {
	rc := ResolvedContext{
		DefaultProfileID: "p1",
		Profiles:         []Profile{{ID: "p1"}, {ID: "p2"}},
	}

	t.Run("defaults when nothing requested", func(t *testing.T) {
		id, err := SelectProfile(rc, "")
		require.NoError(t, err)
		assert.Equal(t, "p1", id)
	})

	t.Run("owned profile", func(t *testing.T) {
		id, err := SelectProfile(rc, "p2")
		require.NoError(t, err)
		assert.Equal(t, "p2", id)
	})

	t.Run("foreign profile", func(t *testing.T) {
		_, err := SelectProfile(rc, "p9")
		var validationErr *ValidationFailure
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "profile_id", validationErr.Field)
	})

	t.Run("no default", func(t *testing.T) {
		_, err := SelectProfile(ResolvedContext{}, "")
		assert.Error(t, err)
	})
}

func TestTruncateCoverLetter(t *testing.T) {
	short := "Dear hiring manager"
	assert.Equal(t, short, TruncateCoverLetter("  "+short+"  "))

	long := strings.Repeat("b", 1500)
	got := TruncateCoverLetter(long)
	assert.Len(t, []rune(got), MaxCoverLetterLength)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.NoError(t, ValidateCoverLetter(got))
}
