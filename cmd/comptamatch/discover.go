package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mfaurel/comptamatch/internal/classification"
	"github.com/mfaurel/comptamatch/internal/service"
	"github.com/spf13/cobra"
)

func rulesDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Propose rules for recurring unmatched transactions",
		Long: `Discover scans unmatched transactions for labels that keep recurring
without any rule covering them, and proposes each as the pattern of a new
rule. Read-only: create the rule with "rules create" if a proposal fits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			minCount, _ := cmd.Flags().GetInt("min-count")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions, err := store.ListTransactions(ctx, service.TransactionFilter{})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			rules, err := store.ListEnabledRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			candidates := classification.NewDetector(minCount).Discover(transactions, rules)
			if len(candidates) == 0 {
				fmt.Println("No rule candidates found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PATTERN\tCOUNT\tTOTAL\tROLE HINT\tSAMPLE")

			for _, c := range candidates {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
					truncateString(c.Pattern, 32),
					c.Count,
					c.TotalAmount.StringFixed(2),
					c.RoleType,
					truncateString(c.SampleLabel, 40))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("min-count", classification.MinOccurrences, "minimum occurrences before a label is proposed")
	return cmd
}
