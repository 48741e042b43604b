package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"go-afriwork-autoapply/internal/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Apply to matching posts from the job channel",
	Long: `Listen to the configured Telegram job channel through the bot API.

Posts with enough keyword matches are applied to right away, or queued as
pending applications when auto_apply is off. The bot must be an
administrator of the channel to receive its posts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Watch(ctx)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("GIN_MODE") == "" {
			gin.SetMode(gin.ReleaseMode)
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}
