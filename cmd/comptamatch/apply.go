package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mfaurel/comptamatch/internal/cli"
	"github.com/mfaurel/comptamatch/internal/common"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/mfaurel/comptamatch/internal/service"
	"github.com/spf13/cobra"
)

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Preview and confirm retroactive rule application",
		Long: `Apply a rule to previously imported transactions in two phases:
a read-only preview grouped by normalized label, then an atomic confirm of
the groups a human approved. Confirm is the only bulk write path.`,
	}

	cmd.AddCommand(applyPreviewCmd())
	cmd.AddCommand(applyConfirmCmd())

	return cmd
}

func applyPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <rule-id>",
		Short: "Show which transaction groups a rule would affect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ruleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			eng, cleanup, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			groups, err := eng.PreviewApply(ctx, ruleID)
			if err != nil {
				return fmt.Errorf("failed to build preview: %w", err)
			}

			if len(groups) == 0 {
				fmt.Println("No transactions match this rule")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "GROUP\tCOUNT\tAMOUNT\tFIRST SEEN\tLAST SEEN\tCONFIDENCE\tAPPLIED\tPENDING\tMANUAL")

			for _, group := range groups {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s (%.2f)\t%d\t%d\t%d\n",
					truncateString(group.NormalizedLabel, 32),
					group.TransactionCount,
					group.TotalAmount.StringFixed(2),
					group.FirstSeen.Format("2006-01-02"),
					group.LastSeen.Format("2006-01-02"),
					group.Confidence,
					group.ConfidenceScore,
					group.AlreadyAppliedCount,
					group.PendingCount,
					group.ManualOverrideCount)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, group := range groups {
				fmt.Printf("\n%s:\n", cli.Title(group.NormalizedLabel))
				for _, reason := range group.Reasons {
					fmt.Printf("  - %s\n", reason)
				}
				if len(group.SampleLabels) > 0 {
					fmt.Printf("  %s\n", cli.Subtle("samples: "+strings.Join(group.SampleLabels, " | ")))
				}
				if group.ManualOverrideCount > 0 {
					fmt.Printf("  %s\n", cli.Warning(fmt.Sprintf("%d manually classified transactions will not be touched", group.ManualOverrideCount)))
				}
			}

			return nil
		},
	}
}

func applyConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <rule-id>",
		Short: "Atomically apply a rule to the selected preview groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ruleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			groups, _ := cmd.Flags().GetStringSlice("group")

			eng, cleanup, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// Transient storage failures retry the whole confirm; the
			// re-derivation inside ConfirmApply keeps the retry safe.
			var result *model.ApplyResult
			err = common.WithRetry(ctx, func() error {
				var applyErr error
				result, applyErr = eng.ConfirmApply(ctx, ruleID, groups)
				return applyErr
			}, service.RetryOptions{MaxAttempts: 3})
			if err != nil {
				return fmt.Errorf("failed to apply rule: %w", err)
			}

			fmt.Println(cli.Success(fmt.Sprintf("Updated %d transactions (run %s)", result.UpdatedCount, result.RunID)))
			return nil
		},
	}

	cmd.Flags().StringSliceP("group", "g", nil, "normalized label group to apply (repeatable)")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}
