package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/amishk599/talentmesh/internal/tui"
	"github.com/spf13/cobra"
)

var historyFlags struct {
	org       string
	user      string
	savedOnly bool
	name      string
	pick      bool
	limit     int
	json      bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage an organization's search history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historySaveCmd = &cobra.Command{
	Use:   "save SEARCH_ID",
	Short: "Mark a search as saved so it survives pruning",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySave,
}

var historyUnsaveCmd = &cobra.Command{
	Use:   "unsave SEARCH_ID",
	Short: "Clear the saved flag of a search",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryUnsave,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete SEARCH_ID",
	Short: "Delete a search record",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyRerunCmd = &cobra.Command{
	Use:   "rerun [SEARCH_ID]",
	Short: "Run a stored search again against the current pools",
	Long:  "Re-runs a stored search with its original query and filters. Use --pick to choose from saved searches interactively.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryRerun,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyFlags.org, "org", "", "organization ID (required)")
	_ = historyCmd.MarkPersistentFlagRequired("org")

	historyListCmd.Flags().BoolVar(&historyFlags.savedOnly, "saved", false, "only saved searches")
	historyListCmd.Flags().BoolVar(&historyFlags.json, "json", false, "print records as JSON")
	historySaveCmd.Flags().StringVar(&historyFlags.name, "name", "", "display name for the saved search")
	historyRerunCmd.Flags().BoolVar(&historyFlags.pick, "pick", false, "choose a saved search interactively")
	historyRerunCmd.Flags().StringVar(&historyFlags.user, "user", "cli", "user running the search")
	historyRerunCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 0, "maximum results")

	historyCmd.AddCommand(historyListCmd, historySaveCmd, historyUnsaveCmd, historyDeleteCmd, historyRerunCmd)
	rootCmd.AddCommand(historyCmd)
}

// withApp builds the service graph for a short-lived history command.
func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, logger := mustSetup()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	return fn(ctx, a)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		records, err := a.history.List(ctx, historyFlags.org, historyFlags.savedOnly)
		if err != nil {
			return err
		}
		if historyFlags.json {
			return writeJSON(cmd.OutOrStdout(), records)
		}
		printRecords(cmd.OutOrStdout(), records)
		return nil
	})
}

func runHistorySave(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.history.Save(ctx, historyFlags.org, args[0], historyFlags.name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
		return nil
	})
}

func runHistoryUnsave(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.history.Unsave(ctx, historyFlags.org, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "unsaved %s\n", args[0])
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.history.Delete(ctx, historyFlags.org, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	})
}

func runHistoryRerun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !historyFlags.pick {
		return errors.New("pass a SEARCH_ID or --pick")
	}
	if historyFlags.pick {
		if err := requireTTY("pick"); err != nil {
			return err
		}
	}
	return withApp(func(ctx context.Context, a *app) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		} else {
			records, err := a.history.List(ctx, historyFlags.org, true)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved searches")
				return nil
			}
			idx, err := tui.RunSearchPicker(records)
			if err != nil {
				return err
			}
			if idx < 0 {
				return nil
			}
			id = records[idx].ID
		}

		bundle, err := a.history.Rerun(ctx, historyFlags.org, historyFlags.user, id, historyFlags.limit)
		if err != nil {
			return err
		}
		if historyFlags.pick {
			return tui.RunResultsTUI(bundle, a.scorer.Weights())
		}
		printBundle(cmd.OutOrStdout(), bundle)
		return nil
	})
}
