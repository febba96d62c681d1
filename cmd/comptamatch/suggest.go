package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/service"
	"github.com/spf13/cobra"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show classification suggestions for unmatched transactions",
		Long: `Match stored transactions against the enabled rules and print the
resulting suggestions. Read-only: nothing is written to storage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			limit, _ := cmd.Flags().GetInt("limit")
			all, _ := cmd.Flags().GetBool("all")

			eng, store, cleanup, err := initEngineWithStorage(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := service.TransactionFilter{Limit: limit}
			if !all {
				status := model.StatusUnmatched
				filter.Status = &status
			}

			transactions, err := store.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			if len(transactions) == 0 {
				fmt.Println("No transactions to suggest for")
				return nil
			}

			suggestions, err := eng.Suggest(ctx, transactions)
			if err != nil {
				return fmt.Errorf("failed to compute suggestions: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TRANSACTION\tLABEL\tSUGGESTION\tCATEGORY\tROLE\tCONFIDENCE")

			for _, txn := range transactions {
				suggestion, ok := suggestions[txn.ID]
				if !ok {
					_, _ = fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t%s\n",
						txn.ID, truncateString(txn.Label, 32), model.ConfidenceNone)
					continue
				}

				category := "-"
				if suggestion.Category != nil {
					category = *suggestion.Category
				}

				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					truncateString(txn.Label, 32),
					suggestion.DisplayLabel,
					category,
					suggestion.RoleType,
					suggestion.Confidence)
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntP("limit", "n", 50, "maximum transactions to show")
	cmd.Flags().Bool("all", false, "include already classified transactions")

	return cmd
}
