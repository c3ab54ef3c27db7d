package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/gradebook/storage"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run a migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.db == nil {
				return errors.New("the database is disabled (DB_DISABLED)")
			}
			return gooseRunFunc(cli.db, cli.logger, args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which store is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Storage:   %s\n", cli.adapter.Mode())
			if cli.adapter.Mode() == storage.ModeDatabasePreferred {
				fmt.Fprintf(w, "Database:  %s/%s\n", cli.conf.Database.Address(), cli.conf.Database.Name)
			} else {
				fmt.Fprintf(w, "Data file: %s\n", cli.adapter.FilePath())
			}
			fmt.Fprintf(w, "Students:  %d\n", cli.roster.Count())
			return nil
		},
	}
}
