package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amishk599/talentmesh/internal/config"
	"github.com/amishk599/talentmesh/internal/document"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/profile"
	"github.com/amishk599/talentmesh/internal/queue"
	"github.com/spf13/cobra"
)

var indexFlags struct {
	org      string
	files    []string
	texts    []string
	objects  []string
	location string
	premium  bool
	enqueue  bool
	stale    bool
}

var indexCmd = &cobra.Command{
	Use:   "index OWNER_TYPE OWNER_ID",
	Short: "Store profile sources and rebuild the owner's keyword profile",
	Long: "Rebuilds the keyword profile of a user, candidate or job.\n\n" +
		"  --source resume=cv.pdf       extract text from a local file (txt, md, html, pdf, docx)\n" +
		"  --text manual=\"go, k8s\"      inline source text\n" +
		"  --object resume=uploads/1.pdf  object storage key, resolved by the queue worker\n\n" +
		"With --enqueue the request is published to the reindex queue instead of run inline.\n" +
		"With --stale the arguments are ignored and one batch of stale profiles is refreshed.",
	Args: func(cmd *cobra.Command, args []string) error {
		if indexFlags.stale {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runIndex,
}

func init() {
	f := indexCmd.Flags()
	f.StringVar(&indexFlags.org, "org", "", "organization ID (candidates)")
	f.StringArrayVar(&indexFlags.files, "source", nil, "TYPE=PATH source file, repeatable")
	f.StringArrayVar(&indexFlags.texts, "text", nil, "TYPE=TEXT inline source, repeatable")
	f.StringArrayVar(&indexFlags.objects, "object", nil, "TYPE=KEY object storage source, repeatable (requires --enqueue)")
	f.StringVar(&indexFlags.location, "location", "", "owner location")
	f.BoolVar(&indexFlags.premium, "premium", false, "mark the owner as premium")
	f.BoolVar(&indexFlags.enqueue, "enqueue", false, "publish to the reindex queue instead of indexing inline")
	f.BoolVar(&indexFlags.stale, "stale", false, "refresh one batch of stale profiles")
	rootCmd.AddCommand(indexCmd)
}

func splitPair(flag, v string) (model.SourceType, string, error) {
	typ, value, ok := strings.Cut(v, "=")
	if !ok || value == "" {
		return "", "", fmt.Errorf("--%s %q: expected TYPE=VALUE", flag, v)
	}
	src := model.SourceType(strings.TrimSpace(typ))
	if !src.Valid() {
		return "", "", fmt.Errorf("--%s %q: unknown source type %q", flag, v, typ)
	}
	return src, value, nil
}

// collectSources extracts the local file and inline sources.
func collectSources() ([]model.SourceText, error) {
	var sources []model.SourceText
	for _, v := range indexFlags.files {
		src, path, err := splitPair("source", v)
		if err != nil {
			return nil, err
		}
		text, err := document.FromFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, model.SourceText{Source: src, Text: text})
	}
	for _, v := range indexFlags.texts {
		src, text, err := splitPair("text", v)
		if err != nil {
			return nil, err
		}
		sources = append(sources, model.SourceText{Source: src, Text: text})
	}
	return sources, nil
}

func indexAttrs() *model.ProfileAttributes {
	if indexFlags.location == "" && !indexFlags.premium {
		return nil
	}
	return &model.ProfileAttributes{Location: indexFlags.location, IsPremium: indexFlags.premium}
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	if indexFlags.stale {
		return runRefreshStale(cfg, logger)
	}

	owner := model.Owner{Type: model.OwnerType(args[0]), ID: args[1], OrgID: indexFlags.org}
	if !owner.Type.Valid() {
		return fmt.Errorf("unknown owner type %q (want user, candidate or job)", args[0])
	}
	sources, err := collectSources()
	if err != nil {
		return err
	}

	if indexFlags.enqueue {
		return enqueueIndex(cfg, logger, owner, sources)
	}
	if len(indexFlags.objects) > 0 {
		return fmt.Errorf("--object requires --enqueue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Queue.Timeout)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	out, err := a.indexer.IndexJob(ctx, profile.Job{Owner: owner, Sources: sources, Attrs: indexAttrs()})
	if err != nil {
		return fmt.Errorf("reindexing %s: %w", owner.Key(), err)
	}
	if !out.Written {
		return fmt.Errorf("%s: every source failed extraction (%d), previous profile kept", owner.Key(), out.Failed)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d keywords (%d sources failed)\n", owner.Key(), len(out.Profile.Keywords), out.Failed)
	return nil
}

func runRefreshStale(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	n, err := a.indexer.RefreshStale(ctx)
	if err != nil {
		return fmt.Errorf("refreshing stale profiles: %w", err)
	}
	logger.Info("stale refresh complete", "refreshed", n, "batch", cfg.Reindex.StaleBatch)
	return nil
}

func enqueueIndex(cfg *config.Config, logger *slog.Logger, owner model.Owner, sources []model.SourceText) error {
	if cfg.Queue.URL == "" {
		return fmt.Errorf("--enqueue requires queue.url")
	}

	msg := queue.Message{
		OwnerType:  owner.Type,
		OwnerID:    owner.ID,
		OrgID:      owner.OrgID,
		Attributes: indexAttrs(),
	}
	for _, s := range sources {
		msg.Sources = append(msg.Sources, queue.SourceRef{SourceType: s.Source, Text: s.Text})
	}
	for _, v := range indexFlags.objects {
		src, key, err := splitPair("object", v)
		if err != nil {
			return err
		}
		mime, err := document.MimeFromPath(key)
		if err != nil {
			return err
		}
		msg.Sources = append(msg.Sources, queue.SourceRef{SourceType: src, ObjectKey: key, Mime: mime})
	}
	if len(msg.Sources) == 0 {
		return fmt.Errorf("nothing to enqueue: pass --source, --text or --object")
	}

	broker, err := queue.Dial(cfg.Queue.URL, cfg.Queue.Queue, cfg.Queue.Exchange)
	if err != nil {
		logger.Error("failed to connect to queue", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	if err := broker.Enqueue(context.Background(), msg); err != nil {
		return fmt.Errorf("enqueueing %s: %w", owner.Key(), err)
	}
	logger.Info("reindex enqueued", "owner", owner.Key(), "sources", len(msg.Sources))
	return nil
}
