package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/gradebook/services/transfer"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func (cli *commandLine) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "import json|csv PATH",
		Short:     "Import students from a file; invalid entries are skipped",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{formatJSON, formatCSV},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, path := args[0], args[1]
			if format != formatJSON && format != formatCSV {
				return errors.Errorf("unknown format %q (json or csv)", format)
			}
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return errors.Wrap(err, "opening import file")
			}
			defer f.Close()

			var rep transfer.Report
			if format == formatJSON {
				rep, err = transfer.ImportJSON(f, path, cli.roster, cli.logger)
			} else {
				rep, err = transfer.ImportCSV(f, path, cli.roster, cli.conf.Subjects, cli.logger)
			}
			if err != nil {
				return err
			}
			if rep.Imported > 0 {
				if err = cli.save(cmd.Context()); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Import %s: %s\n", rep.BatchID, rep)
			for _, msg := range rep.Errors {
				fmt.Fprintf(w, "  %s\n", msg)
			}
			return nil
		},
	}
}

func (cli *commandLine) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "export json|csv PATH",
		Short:     "Export every student to a file",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{formatJSON, formatCSV},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, path := args[0], args[1]
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}

			records := cli.roster.List()
			var err error
			switch format {
			case formatJSON:
				err = transfer.ExportJSONFile(path, records)
			case formatCSV:
				err = transfer.ExportCSVFile(path, records, cli.conf.Subjects, cli.roster.Scale())
			default:
				return errors.Errorf("unknown format %q (json or csv)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d student(s) exported to %s.\n", len(records), path)
			return nil
		},
	}
}
