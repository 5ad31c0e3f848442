package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/amishk599/talentmesh/internal/search"
	"github.com/spf13/cobra"
)

var (
	matchLimit int
	matchJSON  bool
)

var matchCmd = &cobra.Command{
	Use:   "match USER_ID",
	Short: "Rank public users against one user's profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "n", 0, "maximum results (default: search.peer_limit)")
	matchCmd.Flags().Float64("min-score", 0, "drop matches scoring below this")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print matches as JSON")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()
	minScore, err := optionalScore(cmd, "min-score")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	limit := matchLimit
	if limit == 0 {
		limit = cfg.Search.PeerLimit
	}
	matches, err := a.peers.Match(ctx, args[0], search.PeerOptions{Limit: limit, MinScore: minScore})
	if err != nil {
		return fmt.Errorf("matching %s: %w", args[0], err)
	}

	if matchJSON {
		return writeJSON(cmd.OutOrStdout(), matches)
	}
	printMatches(cmd.OutOrStdout(), matches)
	return nil
}
