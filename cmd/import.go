package main

import (
	"context"
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-api/internal/fetcher"
	"github.com/sells-group/lead-api/internal/model"
	"github.com/sells-group/lead-api/pkg/notion"
)

var (
	importFile   string
	importNotion bool
	importUseAI  bool
	importLimit  int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import leads from a CSV/JSON/XLSX file or the Notion lead queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if (importFile == "") == !importNotion {
			return eris.New("exactly one of --file or --notion is required")
		}

		modes := []string{"store"}
		if importNotion {
			modes = append(modes, "notion")
		}
		if importUseAI {
			modes = append(modes, "ai")
		}
		if err := cfg.Validate(modes...); err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if importNotion {
			return runNotionImport(ctx, env, notion.NewClient(cfg.Notion.Token), cmd.OutOrStdout())
		}
		return runFileImport(ctx, env, importFile, cmd.OutOrStdout())
	},
}

func runFileImport(ctx context.Context, env *appEnv, path string, out io.Writer) error {
	leads, err := fetcher.ReadLeadsFile(ctx, path)
	if err != nil {
		return eris.Wrap(err, "import file")
	}
	leads = limitLeads(leads, importLimit)

	report, err := env.Pipeline.BulkImport(ctx, leads, importUseAI)
	if err != nil {
		return eris.Wrap(err, "import file")
	}
	zap.L().Info("import complete",
		zap.String("file", path),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
	)
	return writeReport(out, report)
}

func runNotionImport(ctx context.Context, env *appEnv, nc notion.Client, out io.Writer) error {
	pages, err := notion.QueryQueuedLeads(ctx, nc, cfg.Notion.LeadDB)
	if err != nil {
		return eris.Wrap(err, "import notion")
	}

	leads := make([]model.Lead, len(pages))
	pageIDs := make([]string, len(pages))
	for i, page := range pages {
		leads[i] = notion.PageToLead(page)
		pageIDs[i] = string(page.ID)
	}
	leads = limitLeads(leads, importLimit)
	pageIDs = pageIDs[:len(leads)]

	report, err := env.Pipeline.BulkImport(ctx, leads, importUseAI)
	if err != nil {
		return eris.Wrap(err, "import notion")
	}

	if err := notion.MarkImportResults(ctx, nc, pageIDs, report); err != nil {
		zap.L().Warn("import notion: status write-back incomplete", zap.Error(err))
	}
	zap.L().Info("import complete",
		zap.String("source", "notion"),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
	)
	return writeReport(out, report)
}

func limitLeads(leads []model.Lead, limit int) []model.Lead {
	if limit > 0 && len(leads) > limit {
		return leads[:limit]
	}
	return leads
}

func writeReport(out io.Writer, report *model.ImportReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv, .json or .xlsx lead file")
	importCmd.Flags().BoolVar(&importNotion, "notion", false, "import queued leads from the Notion lead database")
	importCmd.Flags().BoolVar(&importUseAI, "use-ai", false, "explain each lead with Claude instead of the batch fallback")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "max leads to import (0 = all)")
	rootCmd.AddCommand(importCmd)
}
