package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/app"
	"go-afriwork-autoapply/internal/store"
	"go-afriwork-autoapply/internal/workflow"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Submit one application",
	Long: `Submit an application to one job.

A cover letter is required: pass --cover-letter or --cover-letter-file, or
--generate to write one from the job description (needs ai.api_key).
Without --profile the job seeker's default profile is used.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().String("job", "", "job id (required)")
	applyCmd.Flags().String("profile", "", "profile id to apply with")
	applyCmd.Flags().String("cover-letter", "", "cover letter text")
	applyCmd.Flags().String("cover-letter-file", "", "read the cover letter from a file")
	applyCmd.Flags().Bool("generate", false, "generate the cover letter with the configured AI model")
	applyCmd.Flags().String("handle", "", "telegram username sent with the application")
	applyCmd.Flags().String("referral", "", "share id of a referral link")
	_ = applyCmd.MarkFlagRequired("job")
}

func runApply(cmd *cobra.Command, args []string) error {
	jobID, _ := cmd.Flags().GetString("job")
	profileID, _ := cmd.Flags().GetString("profile")
	letter, _ := cmd.Flags().GetString("cover-letter")
	letterFile, _ := cmd.Flags().GetString("cover-letter-file")
	handle, _ := cmd.Flags().GetString("handle")
	referral, _ := cmd.Flags().GetString("referral")
	generate, _ := cmd.Flags().GetBool("generate")

	letter, err := readCoverLetter(letter, letterFile)
	if err != nil {
		return err
	}
	if err := checkCoverLetter(letter, generate, cfg.AI.APIKey != ""); err != nil {
		return err
	}
	if handle == "" {
		handle = cfg.Telegram.Username
	}

	req := workflow.Request{
		Application: afriwork.ApplicationRequest{
			JobID:       jobID,
			ProfileID:   profileID,
			CoverLetter: letter,
		},
		Method: store.MethodManual,
	}
	if handle != "" {
		req.Application.Handle = &handle
	}
	if referral != "" {
		req.Application.ReferralID = &referral
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		out, err := a.Runner.Apply(ctx, req)
		if err != nil {
			return fmt.Errorf("application failed: %s", afriwork.Reason(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Application submitted: %s\n", out.Result.ApplicationID)
		if out.Job.Title != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Position: %s (%s)\n", out.Job.Title, out.Job.Company)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Record: %s\n", out.Record.Key)
		return nil
	})
}

// readCoverLetter prefers inline text over a file.
func readCoverLetter(text, path string) (string, error) {
	if text != "" && path != "" {
		return "", fmt.Errorf("use either --cover-letter or --cover-letter-file, not both")
	}
	if path == "" {
		return strings.TrimSpace(text), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read cover letter: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// checkCoverLetter refuses to fall back to the default letter from the CLI.
func checkCoverLetter(letter string, generate, canGenerate bool) error {
	switch {
	case letter != "" && generate:
		return fmt.Errorf("--generate cannot be combined with a cover letter")
	case letter != "":
		return nil
	case !generate:
		return fmt.Errorf("cover letter is required: use --cover-letter, --cover-letter-file or --generate")
	case !canGenerate:
		return fmt.Errorf("--generate needs GROQ_API_KEY or ai.api_key")
	}
	return nil
}
