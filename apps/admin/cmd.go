package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage"
	"github.com/trezcool/gradebook/storage/database"
)

var (
	// mockable
	isTerminalFunc = func(in io.Reader) bool {
		f, ok := in.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
	gooseRunFunc = database.RunMigrations
	exitFunc     = os.Exit
)

type commandLine struct {
	conf    *core.Config
	logger  core.Logger
	adapter *storage.Adapter
	db      *sqlx.DB // nil when the database is disabled
	roster  *student.Roster
	in      io.Reader
}

// exit releases the database, runs `closers` and exits with `code`.
// Deferred calls do not run after os.Exit.
func (cli *commandLine) exit(code int, closers ...func()) {
	if cli.db != nil {
		if err := cli.db.Close(); err != nil {
			cli.logger.Warn("closing database", err)
		}
	}
	for _, c := range closers {
		c()
	}
	exitFunc(code)
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gradebook",
		Short:        "Manage student records and grades",
		Version:      cli.conf.Build,
		SilenceUsage: true,
	}

	root.AddCommand(
		cli.listCmd(),
		cli.showCmd(),
		cli.addCmd(),
		cli.deleteCmd(),
		cli.clearCmd(),
		cli.statsCmd(),
		cli.rangeCmd(),
		cli.importCmd(),
		cli.exportCmd(),
		cli.profileCmd(),
		cli.migrateCmd(),
		cli.statusCmd(),
	)
	return root
}

// load fills the roster from the store.
func (cli *commandLine) load(ctx context.Context) error {
	records, err := cli.adapter.Load(ctx)
	if err != nil {
		return err
	}
	cli.roster.Replace(records)
	return nil
}

// save writes the whole roster back to the store.
func (cli *commandLine) save(ctx context.Context) error {
	return cli.adapter.Save(ctx, cli.roster.List())
}

func (cli *commandLine) printRecords(w io.Writer, records []student.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No students found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"ID", "NAME"}, upper(cli.conf.Subjects)...)
	header = append(header, "TOTAL", "AVERAGE", "GRADE")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	scale := cli.roster.Scale()
	for _, r := range records {
		row := []string{r.ID, r.Name}
		for _, subj := range cli.conf.Subjects {
			row = append(row, formatMark(r.Marks, subj))
		}
		row = append(row, fmt.Sprintf("%.2f", r.Total()), fmt.Sprintf("%.2f", r.Average()), r.Grade(scale))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d student(s)\n", len(records))
}

func formatMark(marks student.Marks, subject string) string {
	mark, ok := marks[subject]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%g", mark)
}

func upper(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, strings.ToUpper(s))
	}
	return out
}
