package main

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

func (cli *commandLine) listCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students, sorted by ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			records := cli.roster.List()
			if cmd.Flags().Changed("search") {
				records = cli.roster.Search(search)
			}
			cli.printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list students whose ID or name contains this text")
	return cmd
}

func (cli *commandLine) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			r, ok := cli.roster.Get(core.CleanString(args[0]))
			if !ok {
				return student.ErrNotFound
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:       %s\n", r.ID)
			fmt.Fprintf(w, "Name:     %s\n", r.Name)
			for _, subj := range r.Marks.Subjects() {
				fmt.Fprintf(w, "  %-20s %g\n", subj, r.Marks[subj])
			}
			fmt.Fprintf(w, "Total:    %.2f\n", r.Total())
			fmt.Fprintf(w, "Average:  %.2f\n", r.Average())
			fmt.Fprintf(w, "Grade:    %s\n", r.Grade(cli.roster.Scale()))
			return nil
		},
	}
}

// parseMarks reads "Subject=mark" pairs.
func parseMarks(pairs []string) (map[string]float64, error) {
	marks := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		subj, text, ok := strings.Cut(pair, "=")
		subj = core.CleanString(subj)
		if !ok || subj == "" {
			return nil, core.NewValidationError(errors.Errorf("invalid mark %q, expected Subject=mark", pair))
		}
		mark, err := student.ParseMarkInput(text, subj)
		if err != nil {
			return nil, err
		}
		marks[subj] = mark
	}
	return marks, nil
}

func (cli *commandLine) addCmd() *cobra.Command {
	var (
		form  student.RecordForm
		marks []string
	)
	cmd := &cobra.Command{
		Use:   "add --id ID --name NAME [--mark Subject=mark]...",
		Short: "Add a student, or replace the student with the same ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if form.Marks, err = parseMarks(marks); err != nil {
				return err
			}
			if err = form.Validate(); err != nil {
				return err
			}
			if err = cli.load(cmd.Context()); err != nil {
				return err
			}

			_, exists := cli.roster.Get(form.ID)
			cli.roster.Upsert(form.Record())
			if err = cli.save(cmd.Context()); err != nil {
				return err
			}
			if exists {
				fmt.Fprintf(cmd.OutOrStdout(), "Student %s updated.\n", form.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Student %s added.\n", form.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form.ID, "id", "", "Student ID")
	cmd.Flags().StringVar(&form.Name, "name", "", "Student name")
	cmd.Flags().StringArrayVarP(&marks, "mark", "m", nil, "Mark as Subject=value, repeatable")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			id := core.CleanString(args[0])
			if !cli.roster.Delete(id) {
				return student.ErrNotFound
			}
			if err := cli.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Student %s deleted.\n", id)
			return nil
		},
	}
}

func (cli *commandLine) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !isTerminalFunc(cli.in) {
					return errors.New("refusing to clear all students without --yes")
				}
				fmt.Fprint(cmd.OutOrStdout(), "Delete ALL students? This cannot be undone. [y/N]: ")
				answer, _ := bufio.NewReader(cli.in).ReadString('\n')
				if a := core.CleanString(answer, true /* lower */); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			n := cli.roster.Clear()
			if err := cli.save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d student(s) deleted.\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (cli *commandLine) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show class statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			stats := cli.roster.Statistics()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Total students: %d\n", stats.TotalStudents)
			fmt.Fprintf(w, "Class average:  %.2f\n", stats.ClassAverage)
			fmt.Fprintf(w, "Pass rate:      %.2f%%\n", stats.PassRate)

			fmt.Fprintln(w, "\nGrade distribution:")
			for _, letter := range cli.roster.Scale().Letters() {
				fmt.Fprintf(w, "  %-3s %d\n", letter, stats.StudentsByGrade[letter])
			}

			fmt.Fprintln(w, "\nSubject averages:")
			subjects := make([]string, 0, len(stats.SubjectAverages))
			for subj := range stats.SubjectAverages {
				subjects = append(subjects, subj)
			}
			sort.Strings(subjects)
			for _, subj := range subjects {
				fmt.Fprintf(w, "  %-20s %.2f\n", subj, stats.SubjectAverages[subj])
			}

			printPerformers := func(title string, performers []student.Performer) {
				fmt.Fprintf(w, "\n%s:\n", title)
				for i, p := range performers {
					fmt.Fprintf(w, "  %d. %s (%s) %.2f\n", i+1, p.Name, p.ID, p.Average)
				}
			}
			printPerformers("Top performers", stats.TopPerformers)
			printPerformers("Bottom performers", stats.BottomPerformers)
			return nil
		},
	}
}

func (cli *commandLine) rangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "range MIN MAX",
		Short: "List students whose average is within [MIN, MAX]",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return core.NewValidationError(errors.Errorf("invalid MIN %q", args[0]))
			}
			hi, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return core.NewValidationError(errors.Errorf("invalid MAX %q", args[1]))
			}
			if lo > hi {
				return core.NewValidationError(errors.New("MIN cannot be greater than MAX"))
			}

			if err = cli.load(cmd.Context()); err != nil {
				return err
			}
			cli.printRecords(cmd.OutOrStdout(), cli.roster.InRange(lo, hi))
			return nil
		},
	}
}
