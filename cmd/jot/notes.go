package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Work with your notes on the server",
	}
	cmd.AddCommand(notesAddCmd(), notesListCmd(), notesGetCmd(), notesEditCmd(), notesRemoveCmd())
	return cmd
}

func notesAddCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthedClient()
			if err != nil {
				return err
			}

			note, err := client.CreateNote(cmd.Context(), strings.Join(args, " "), tags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), note.ID)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag the note (repeatable)")
	return cmd
}

func notesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthedClient()
			if err != nil {
				return err
			}

			list, err := client.ListNotes(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, n := range list {
				tags := strings.Join(n.Tags, ",")
				fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, tags, firstLine(n.Content))
			}
			return w.Flush()
		},
	}
}

func notesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthedClient()
			if err != nil {
				return err
			}

			note, err := client.GetNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), note.Content)
			return nil
		},
	}
}

func notesEditCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "edit <id> <content>",
		Short: "Rewrite a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthedClient()
			if err != nil {
				return err
			}

			note, err := client.UpdateNote(cmd.Context(), args[0], strings.Join(args[1:], " "), tags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), note.ID)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replace the note's tags (repeatable)")
	return cmd
}

func notesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAuthedClient()
			if err != nil {
				return err
			}
			return client.DeleteNote(cmd.Context(), args[0])
		},
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
