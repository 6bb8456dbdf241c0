package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func newLoginCmd(get func() *app) *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.session.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", u.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newRegisterCmd(get func() *app) *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if _, err := a.session.Register(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account created for %s. Sign in with: storefront login --email %s\n", reg.Email, reg.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Username, "username", "", "display name")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password")
	return cmd
}

func newWhoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			state, ok := a.session.Current()
			if !ok {
				fmt.Fprintln(a.out, "Not signed in.")
				return nil
			}
			role := "customer"
			if state.User.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", state.User.DisplayName(), state.User.Email, role)
			return nil
		},
	}
}
