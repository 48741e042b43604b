package ai

import (
	"context"
	"strings"
)

// CoverLetterWriter drafts a cover letter for a job description.
type CoverLetterWriter interface {
	WriteCoverLetter(ctx context.Context, jobDescription string) (string, error)
}

// Expertise is what the applicant wants the letter to draw on.
type Expertise struct {
	Skills         []string `yaml:"skills"`
	Experience     []string `yaml:"experience"`
	Education      string   `yaml:"education"`
	Languages      []string `yaml:"languages"`
	AdditionalInfo string   `yaml:"additional_info"`
}

// DefaultPrompt is used when no prompt template is configured.
const DefaultPrompt = `Write a concise, professional cover letter for the job below.
Keep it under 900 characters, plain text, no greeting placeholders and no signature block.

Job description:
{jobDescription}

Applicant skills: {skills}
Experience: {experience}
Education: {education}
Languages: {languages}
Additional information: {additionalInfo}`

const systemPrompt = `You write short job application cover letters. Reply with the letter text only, without markdown or commentary.`

// buildPrompt fills the template placeholders.
func buildPrompt(template, jobDescription string, e Expertise) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPrompt
	}
	education := e.Education
	if education == "" {
		education = "Not specified"
	}
	r := strings.NewReplacer(
		"{jobDescription}", jobDescription,
		"{skills}", strings.Join(e.Skills, ", "),
		"{experience}", strings.Join(e.Experience, ". "),
		"{education}", education,
		"{languages}", strings.Join(e.Languages, ", "),
		"{additionalInfo}", e.AdditionalInfo,
	)
	return r.Replace(template)
}
