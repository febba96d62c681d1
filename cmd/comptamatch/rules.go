package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mfaurel/comptamatch/internal/engine"
	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage matching rules",
		Long: `Manage the matching rules that assign counterparty organisations,
expense categories and role types to transaction labels.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesCreateCmd())
	cmd.AddCommand(rulesUpdateCmd())
	cmd.AddCommand(rulesEnableCmd())
	cmd.AddCommand(rulesDisableCmd())
	cmd.AddCommand(rulesDiscoverCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in matching order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, cleanup, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rules, err := eng.ListRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println("No rules defined")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tPRIORITY\tTYPE\tPATTERNS\tORGANISATION\tCATEGORY\tROLE\tENABLED\tUSE COUNT")

			for _, rule := range rules {
				organisation := "-"
				if rule.OrganisationID != nil {
					organisation = *rule.OrganisationID
				}
				category := "-"
				if rule.Category != nil {
					category = *rule.Category
				}

				_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%t\t%d\n",
					rule.ID,
					rule.Priority,
					rule.MatchType,
					truncateString(strings.Join(rule.Patterns, ", "), 40),
					organisation,
					category,
					rule.RoleType,
					rule.Enabled,
					rule.UseCount)
			}

			return w.Flush()
		},
	}
}

func rulesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a matching rule",
		Long: `Create a matching rule. Creating a rule whose match type and first
pattern collide with an existing enabled rule updates that rule instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			matchType, _ := cmd.Flags().GetString("match-type")
			patterns, _ := cmd.Flags().GetStringSlice("pattern")
			organisation, _ := cmd.Flags().GetString("organisation")
			category, _ := cmd.Flags().GetString("category")
			roleType, _ := cmd.Flags().GetString("role")
			priority, _ := cmd.Flags().GetInt("priority")
			multiCat, _ := cmd.Flags().GetBool("allow-multiple-categories")

			eng, cleanup, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			input := engine.CreateRuleInput{
				MatchType:               model.MatchType(matchType),
				Patterns:                patterns,
				OrganisationID:          optional(organisation),
				Category:                optional(category),
				RoleType:                model.RoleType(roleType),
				AllowMultipleCategories: multiCat,
			}
			if cmd.Flags().Changed("priority") {
				input.Priority = &priority
			}

			rule, err := eng.CreateRule(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Printf("Rule %d (%s %q, priority %d)\n",
				rule.ID, rule.MatchType, rule.PrimaryPattern(), rule.Priority)
			return nil
		},
	}

	cmd.Flags().StringP("match-type", "m", "contains", "match semantics (exact, contains)")
	cmd.Flags().StringSliceP("pattern", "p", nil, "pattern to match (repeatable for label variants)")
	cmd.Flags().StringP("organisation", "o", "", "counterparty organisation ID")
	cmd.Flags().StringP("category", "c", "", "classification code")
	cmd.Flags().StringP("role", "r", "supplier", "role type (supplier, customer, partner, internal)")
	cmd.Flags().Int("priority", model.DefaultRulePriority, "evaluation priority (lower first)")
	cmd.Flags().Bool("allow-multiple-categories", false, "matched transactions may keep a different category")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func rulesUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			eng, cleanup, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var input engine.UpdateRuleInput
			if cmd.Flags().Changed("pattern") {
				input.Patterns, _ = cmd.Flags().GetStringSlice("pattern")
			}
			if cmd.Flags().Changed("match-type") {
				v, _ := cmd.Flags().GetString("match-type")
				mt := model.MatchType(v)
				input.MatchType = &mt
			}
			if cmd.Flags().Changed("organisation") {
				v, _ := cmd.Flags().GetString("organisation")
				input.OrganisationID = optional(v)
			}
			if cmd.Flags().Changed("category") {
				v, _ := cmd.Flags().GetString("category")
				input.Category = optional(v)
			}
			if cmd.Flags().Changed("role") {
				v, _ := cmd.Flags().GetString("role")
				rt := model.RoleType(v)
				input.RoleType = &rt
			}
			if cmd.Flags().Changed("priority") {
				v, _ := cmd.Flags().GetInt("priority")
				input.Priority = &v
			}

			rule, err := eng.UpdateRule(ctx, id, input)
			if err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			fmt.Printf("Rule %d updated\n", rule.ID)
			return nil
		},
	}

	cmd.Flags().StringP("match-type", "m", "", "match semantics (exact, contains)")
	cmd.Flags().StringSliceP("pattern", "p", nil, "replacement pattern list")
	cmd.Flags().StringP("organisation", "o", "", "counterparty organisation ID")
	cmd.Flags().StringP("category", "c", "", "classification code")
	cmd.Flags().StringP("role", "r", "", "role type")
	cmd.Flags().Int("priority", 0, "evaluation priority (lower first)")

	return cmd
}

func rulesEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setRuleEnabled(cmd, args[0], true) },
	}
}

func rulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a rule without unclassifying its transactions",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setRuleEnabled(cmd, args[0], false) },
	}
}

func setRuleEnabled(cmd *cobra.Command, rawID string, enabled bool) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule id %q", rawID)
	}

	eng, cleanup, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if enabled {
		err = eng.EnableRule(ctx, id)
	} else {
		err = eng.DisableRule(ctx, id)
	}
	if err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Rule %d %s\n", id, state)
	return nil
}
