package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/erp/books/internal/infrastructure/api"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in to the configured backend. The password is taken from --password,
then the BOOKS_PASSWORD environment variable, then one line of standard input.`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if password == "" {
				password = os.Getenv("BOOKS_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(a.errOut, "Password: ")
				line, err := readLine(a.in)
				if err != nil {
					return err
				}
				password = line
			}
			creds, err := a.Session.Login(cmd.Context(), username, password)
			if api.IsUnauthorized(err) {
				return errors.New("sign in failed: wrong username or password")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s", creds.Username)
			if !creds.ExpiresAt.IsZero() {
				fmt.Fprintf(a.out, " (access token valid until %s)", creds.ExpiresAt.Local().Format("15:04"))
			}
			fmt.Fprintln(a.out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "user name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer BOOKS_PASSWORD or stdin)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, a *App, _ []string) error {
			if err := a.Session.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		}),
	}
}
