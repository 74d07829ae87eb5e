package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/picktoss/internal/category"
)

func newCategoryCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories and the selected category",
	}
	cmd.AddCommand(
		newCategoryListCmd(get),
		newCategoryCreateCmd(get),
		newCategorySelectCmd(get),
		newCategoryRenameCmd(get),
		newCategoryDeleteCmd(get),
	)
	return cmd
}

func newCategoryListCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories; the selected one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			cats, err := a.categories.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Fprintln(a.out, "no categories")
				return nil
			}
			var selectedID int64
			if sel := a.selection.Selected(); sel != nil {
				selectedID = sel.ID
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, c := range cats {
				mark := " "
				if c.ID == selectedID {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", mark, c.ID, c.Name)
			}
			return tw.Flush()
		},
	}
}

func newCategoryCreateCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a category and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if _, err := a.categories.Load(cmd.Context()); err != nil {
				return err
			}
			input := category.NewNameInput(a.categories)
			input.Open()
			input.Change(args[0])
			created, err := input.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created %q (id %d), now selected\n", created.Name, created.ID)
			return nil
		},
	}
}

func newCategorySelectCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select ID",
		Short: "Select the category new documents go into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.categories.Load(cmd.Context()); err != nil {
				return err
			}
			c, err := a.categories.Select(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "selected %q\n", c.Name)
			return nil
		},
	}
}

func newCategoryRenameCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.categories.Load(cmd.Context()); err != nil {
				return err
			}
			c, err := a.categories.Rename(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "renamed to %q\n", c.Name)
			return nil
		},
	}
}

func newCategoryDeleteCmd(get func() *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a category and every document in it",
		Long: `Delete a category and every document in it. The deletion is confirmed on
stdin first; --yes deletes without asking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.categories.Load(cmd.Context()); err != nil {
				return err
			}
			token, err := a.categories.RequestDelete(id)
			if err != nil {
				return err
			}
			target, _ := a.categories.PendingDelete(token)
			prompt := fmt.Sprintf("Delete %q and all of its documents?", target.Name)
			if !yes && !confirm(a, prompt) {
				a.categories.CancelDelete(token)
				fmt.Fprintln(a.out, "cancelled")
				return nil
			}
			if err := a.categories.ConfirmDelete(cmd.Context(), token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %q\n", target.Name)
			if sel := a.selection.Selected(); sel != nil {
				fmt.Fprintf(a.out, "selected %q\n", sel.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete the category and all of its documents without asking")
	return cmd
}

// confirm asks a yes/no question on the app's streams. Anything but y/yes is no.
func confirm(a *app, prompt string) bool {
	fmt.Fprintf(a.errOut, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
