package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/directory"
	"github.com/parleyhq/parley/internal/domain"
)

func threadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Inspect saved conversations",
	}
	cmd.AddCommand(threadsListCmd(), threadsShowCmd(), threadsDeleteCmd())
	return cmd
}

func threadsListCmd() *cobra.Command {
	var persona string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			dir := directory.New(store, config.Env().DirectoryLimit)
			summaries, err := dir.Refresh(cmd.Context(), domain.Persona(persona))
			if err != nil {
				return err
			}
			printSummaries(summaries)
			return nil
		},
	}
	cmd.Flags().StringVarP(&persona, "persona", "p", "", "only list threads for this persona")
	return cmd
}

func threadsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			thread, err := store.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("thread %s (%s)\n\n", thread.ID, thread.Persona)
			for _, msg := range thread.Messages {
				printMessage(msg)
			}
			return nil
		},
	}
}

func threadsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <thread-id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}
}
