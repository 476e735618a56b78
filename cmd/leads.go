package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-api/internal/model"
	"github.com/sells-group/lead-api/internal/store"
)

var (
	leadsCategory string
	leadsMinScore int
	leadsLimit    int
	leadsOffset   int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List stored leads as JSON, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			Category: model.Category(leadsCategory),
			MinScore: leadsMinScore,
			Limit:    leadsLimit,
			Offset:   leadsOffset,
		})
		if err != nil {
			return eris.Wrap(err, "list leads")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(leads)
	},
}

func init() {
	leadsCmd.Flags().StringVar(&leadsCategory, "category", "", "filter by category (hot, warm, cold)")
	leadsCmd.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum score")
	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 100, "max leads to return")
	leadsCmd.Flags().IntVar(&leadsOffset, "offset", 0, "leads to skip")
	rootCmd.AddCommand(leadsCmd)
}
