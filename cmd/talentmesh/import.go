package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/amishk599/talentmesh/internal/jobboard"
	"github.com/spf13/cobra"
)

var importBoard string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import postings from the configured job boards once",
	Long: "Fetches every board under import.boards, indexes new and changed postings as job\n" +
		"profiles and, with import.notify, sends the top candidate matches of each new posting.",
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importBoard, "board", "", "only import the board with this name")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()
	if len(cfg.Import.Boards) == 0 {
		logger.Error("no boards configured under import.boards")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	importers := buildImporters(a, &http.Client{Timeout: 30 * time.Second}, logger)
	if importBoard != "" {
		var only jobboard.Importers
		for _, im := range importers {
			if im.Name == importBoard {
				only = append(only, im)
			}
		}
		if len(only) == 0 {
			return fmt.Errorf("no board named %q", importBoard)
		}
		importers = only
	}

	n, err := importers.ImportAll(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d postings from %d boards\n", n, len(importers))
	if err != nil {
		return fmt.Errorf("import finished with errors: %w", err)
	}
	return nil
}
