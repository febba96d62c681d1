package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mfaurel/comptamatch/internal/model"
	"github.com/spf13/cobra"
)

func orgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"org", "organisations"},
		Short:   "Manage the counterparty organisation directory",
	}

	cmd.AddCommand(orgsListCmd())
	cmd.AddCommand(orgsAddCmd())

	return cmd
}

func orgsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List organisations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			orgs, err := store.ListOrganisations(ctx)
			if err != nil {
				return fmt.Errorf("failed to list organisations: %w", err)
			}

			if len(orgs) == 0 {
				fmt.Println("No organisations defined")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tDEFAULT ROLE")
			for _, org := range orgs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", org.ID, org.Name, org.DefaultRoleType)
			}
			return w.Flush()
		},
	}
}

func orgsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add or update an organisation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			role, _ := cmd.Flags().GetString("role")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			org := &model.Organisation{
				ID:              args[0],
				Name:            args[1],
				DefaultRoleType: model.RoleType(role),
			}
			if err := store.SaveOrganisation(ctx, org); err != nil {
				return fmt.Errorf("failed to save organisation: %w", err)
			}

			fmt.Printf("Organisation %s saved\n", org.ID)
			return nil
		},
	}

	cmd.Flags().StringP("role", "r", "supplier", "default role type")
	return cmd
}
