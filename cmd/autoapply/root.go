package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-afriwork-autoapply/internal/app"
	"go-afriwork-autoapply/internal/config"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "autoapply",
	Short: "Apply to Afriwork jobs with a Telegram mini-app identity",
	Long: `autoapply exchanges Telegram mini-app init data for an Afriwork session,
resolves the job seeker's profiles and submits applications.

Example usage:
  autoapply apply --job 1da3bfc7-f753-4064-9c2d-0d1af77073d6 --cover-letter-file letter.txt
  autoapply watch                # apply to matching posts from the job channel
  autoapply serve                # dashboard API on $PORT`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func initConfig() error {
	if cfgFile != "" {
		if err := os.Setenv("AUTOAPPLY_CONFIG", cfgFile); err != nil {
			return err
		}
	}
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return nil
}

// withApp builds the application for one command and tears it down after.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
