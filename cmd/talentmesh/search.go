package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/amishk599/talentmesh/internal/document"
	"github.com/amishk599/talentmesh/internal/search"
	"github.com/amishk599/talentmesh/internal/tui"
	"github.com/spf13/cobra"
)

var searchFlags struct {
	org         string
	user        string
	file        string
	text        string
	limit       int
	locations   string
	excludeLocs string
	noOrg       bool
	noPublic    bool
	noSave      bool
	interactive bool
	notify      bool
	json        bool
	timeout     time.Duration
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank candidates and users against a job description",
	Long: "Extracts keywords from a job description and ranks the organization's candidates\n" +
		"and the public user pool. The description comes from --text, --file (txt, md, html,\n" +
		"pdf, docx) or stdin.",
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.org, "org", "", "organization ID (required)")
	f.StringVar(&searchFlags.user, "user", "cli", "user recorded as the search creator")
	f.StringVarP(&searchFlags.file, "file", "f", "", "read the job description from a file")
	f.StringVarP(&searchFlags.text, "text", "t", "", "job description text")
	f.IntVarP(&searchFlags.limit, "limit", "n", 0, "maximum results (default: search.default_limit)")
	f.Float64("min-score", 0, "drop matches scoring below this")
	f.StringVar(&searchFlags.locations, "location", "", "comma separated locations to keep")
	f.StringVar(&searchFlags.excludeLocs, "exclude-location", "", "comma separated locations to drop")
	f.BoolVar(&searchFlags.noOrg, "no-org", false, "skip the organization candidate pool")
	f.BoolVar(&searchFlags.noPublic, "no-public", false, "skip the public user pool")
	f.BoolVar(&searchFlags.noSave, "no-save", false, "do not record the search in history")
	f.BoolVarP(&searchFlags.interactive, "interactive", "i", false, "browse results in the terminal UI")
	f.BoolVar(&searchFlags.notify, "notify", false, "send the results to the configured notifier")
	f.BoolVar(&searchFlags.json, "json", false, "print the result bundle as JSON")
	f.DurationVar(&searchFlags.timeout, "timeout", 2*time.Minute, "overall search timeout")
	_ = searchCmd.MarkFlagRequired("org")
	searchCmd.MarkFlagsMutuallyExclusive("file", "text")
	rootCmd.AddCommand(searchCmd)
}

func readDescription(cmd *cobra.Command) (string, error) {
	switch {
	case searchFlags.text != "":
		return searchFlags.text, nil
	case searchFlags.file != "":
		return document.FromFile(searchFlags.file)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchFlags.interactive {
		if err := requireTTY("interactive"); err != nil {
			return err
		}
	}
	cfg, logger := mustSetup()

	description, err := readDescription(cmd)
	if err != nil {
		logger.Error("failed to read job description", "error", err)
		os.Exit(1)
	}
	minScore, err := optionalScore(cmd, "min-score")
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	req := search.Request{
		OrgID:          searchFlags.org,
		UserID:         searchFlags.user,
		JobDescription: description,
		Options: search.Options{
			IncludeOrgPool:    !searchFlags.noOrg,
			IncludePublicPool: !searchFlags.noPublic,
			Limit:             searchFlags.limit,
			MinScore:          minScore,
			Locations:         splitList(searchFlags.locations),
			ExcludeLocations:  splitList(searchFlags.excludeLocs),
			Persist:           !searchFlags.noSave,
		},
	}

	var bundle *search.ResultBundle
	if searchFlags.interactive {
		bundle, err = tui.RunLoader("Searching", searchFlags.timeout, func(ctx context.Context) (*search.ResultBundle, error) {
			return a.search.Search(ctx, req)
		})
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		}
	} else {
		sctx, cancel := context.WithTimeout(ctx, searchFlags.timeout)
		defer cancel()
		bundle, err = a.search.Search(sctx, req)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchFlags.notify {
		n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
		title := bundle.Job.Title
		if title == "" {
			title = "Search results"
		}
		if err := n.Notify(ctx, title, bundle.Results); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}

	switch {
	case searchFlags.json:
		return writeJSON(cmd.OutOrStdout(), bundle)
	case searchFlags.interactive:
		return tui.RunResultsTUI(bundle, a.scorer.Weights())
	}
	printBundle(cmd.OutOrStdout(), bundle)
	return nil
}

func printBundle(w io.Writer, b *search.ResultBundle) {
	if b.Job.Title != "" {
		fmt.Fprintln(w, headerStyle.Render(b.Job.Title))
	}
	fmt.Fprintf(w, "%d keywords, %d results (org %d, public %d)",
		len(b.Keywords), b.TotalResults, b.Sources.Org, b.Sources.Public)
	if b.SearchID != "" {
		fmt.Fprintf(w, ", saved as %s", b.SearchID)
	}
	fmt.Fprintln(w)
	for _, p := range b.Failed {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("warning: %s pool unavailable", p)))
	}
	printMatches(w, b.Results)
}
