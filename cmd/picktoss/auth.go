package main

import (
	"bufio"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/picktoss/internal/auth"
)

func newAuthCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store or inspect the API token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "login [TOKEN]",
			Short: "Save a token (read from stdin when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				var token string
				if len(args) == 1 {
					token = args[0]
				} else {
					line, err := bufio.NewReader(a.in).ReadString('\n')
					if err != nil && line == "" {
						return fmt.Errorf("read token: %w", err)
					}
					token = line
				}
				if err := a.tokens.Save(cmd.Context(), token); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "token saved")
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if err := a.tokens.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "logged out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether a token is stored and when it expires",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				token, err := a.tokens.Token(cmd.Context())
				if err != nil {
					return err
				}
				if token == "" {
					fmt.Fprintln(a.out, "not logged in")
					return nil
				}
				claims, err := auth.Inspect(token)
				if err != nil {
					fmt.Fprintln(a.out, "logged in (opaque token)")
					return nil
				}
				switch {
				case claims.ExpiresAt.IsZero():
					fmt.Fprintf(a.out, "logged in as %s\n", claims.Subject)
				case claims.Expired(time.Now()):
					fmt.Fprintf(a.out, "token for %s expired at %s\n", claims.Subject, claims.ExpiresAt.Format(time.RFC3339))
				default:
					fmt.Fprintf(a.out, "logged in as %s until %s\n", claims.Subject, claims.ExpiresAt.Format(time.RFC3339))
				}
				return nil
			},
		},
	)
	return cmd
}
