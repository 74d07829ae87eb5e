package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newUserCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account information",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show plan and document usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			u, err := a.api.User(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s>\nplan: %s\ndocuments: %d / %d\n",
				u.Name, u.Email, u.Subscription.Plan, u.DocumentUsage.CurrentPossessDocumentNum, u.MaxDocuments())
			if !u.CanAddDocument() {
				fmt.Fprintln(a.out, "document limit reached")
			}
			return nil
		},
	})
	return cmd
}

func newPayCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay DEPOSITOR_NAME",
		Short: "Report a bank transfer for the PRO plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("depositor name is required")
			}
			if err := a.api.SubmitPayment(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "payment submitted; the plan is upgraded once the transfer is confirmed")
			return nil
		},
	}
}
