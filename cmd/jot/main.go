package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jot-sh/jot/internal/apiclient"
	"github.com/jot-sh/jot/internal/cliauth"
)

var version = "dev"

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "jot",
		Short:         "jot - notes that follow you around",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "jot server URL")

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		notesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultServerURL() string {
	if v := os.Getenv("JOT_SERVER_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// newClient builds an unauthenticated transport to the server.
func newClient() (*apiclient.HTTP, error) {
	return apiclient.NewHTTP(serverURL)
}

// newAuthedClient builds a transport carrying the stored credential.
func newAuthedClient() (*apiclient.HTTP, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	path, err := cliauth.DefaultTokenPath()
	if err != nil {
		return nil, err
	}
	tok, err := cliauth.LoadToken(path)
	if err != nil {
		return nil, err
	}
	return client.WithToken(tok), nil
}
