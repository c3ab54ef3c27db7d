package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

func (cli *commandLine) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the extended profile of a student (database only)",
	}
	cmd.AddCommand(cli.profileShowCmd(), cli.profileSetCmd())
	return cmd
}

func (cli *commandLine) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a student's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			p, err := cli.adapter.GetProfile(cmd.Context(), core.CleanString(args[0]))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-18s %s\n", "student_id", p.StudentID)
			for _, f := range student.ProfileFields {
				value, ok := p.Value(f)
				if !ok {
					value = "-"
				}
				fmt.Fprintf(w, "%-18s %s\n", f, value)
			}
			return nil
		},
	}
}

func (cli *commandLine) profileSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set ID field=value...",
		Short: "Set profile fields; an empty value clears the field",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make(map[string]string, len(args)-1)
			for _, pair := range args[1:] {
				name, value, ok := strings.Cut(pair, "=")
				if !ok {
					return core.NewValidationError(errors.Errorf("invalid field %q, expected field=value", pair))
				}
				raw[name] = value
			}

			if err := cli.load(cmd.Context()); err != nil {
				return err
			}
			id := core.CleanString(args[0])
			if _, ok := cli.roster.Get(id); !ok {
				return student.ErrNotFound
			}

			_, ignored, err := cli.adapter.UpdateProfile(cmd.Context(), id, raw)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range ignored {
				fmt.Fprintf(w, "Ignored unknown field %q.\n", name)
			}
			fmt.Fprintf(w, "Profile of %s updated.\n", id)
			return nil
		},
	}
}
