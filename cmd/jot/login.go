package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jot-sh/jot/internal/cliauth"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through your browser",
		Long:  "Starts a device authorization: jot shows a short code, you approve it in a browser on any machine, and the session credential is stored locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			flow := cliauth.NewFlow(client, cliauth.WithOutput(cmd.OutOrStdout()))
			token, err := flow.Login(cmd.Context())
			if err != nil {
				return err
			}

			path, err := cliauth.DefaultTokenPath()
			if err != nil {
				return err
			}
			if err := cliauth.SaveToken(path, token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cliauth.DefaultTokenPath()
			if err != nil {
				return err
			}
			if err := cliauth.DeleteToken(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the stored credential asserts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthedClient()
			if err != nil {
				return err
			}

			id, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
