package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/talentmesh/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Check match notification delivery",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample match digest",
	Long: `Sends a one-candidate sample digest through the configured
notifier. With no Slack webhook configured the digest is written to the log.`,
	RunE: runNotifyTest,
}

var notifyWebhook string

func init() {
	notifyTestCmd.Flags().StringVar(&notifyWebhook, "webhook", "", "Slack webhook URL overriding notification.webhook_url")
	notifyCmd.AddCommand(notifyTestCmd)
	rootCmd.AddCommand(notifyCmd)
}

func runNotifyTest(cmd *cobra.Command, _ []string) error {
	cfg, logger := mustSetup()
	if notifyWebhook != "" {
		cfg.Notification.Type = "slack"
		cfg.Notification.WebhookURL = notifyWebhook
	}

	target := "log"
	if cfg.Notification.Type == "slack" {
		target = "slack"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	if err := notifier.SendTestMessage(ctx, n); err != nil {
		return fmt.Errorf("sample digest not delivered via %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sample digest delivered via %s\n", target)
	return nil
}
