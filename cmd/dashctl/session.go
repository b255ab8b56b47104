package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiai1/tiai-solutions/internal/session"
)

const defaultSessionDB = ".dashctl-session.db"

func (a *App) newSessionCmd() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Keep a dashboard between runs in a local file",
	}
	cmd.PersistentFlags().StringVar(&db, "db", defaultSessionDB, "session file")

	var template string
	save := &cobra.Command{
		Use:   "save FILE",
		Short: "Load a table (and optionally a template) and keep it in the session file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.OpenBolt(db)
			if err != nil {
				return err
			}
			defer store.Close()

			ws, err := a.workspace(store)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.load(ctx, ws, args[0]); err != nil {
				return err
			}
			if template != "" {
				if _, err := ws.ApplyTemplate(ctx, template); err != nil {
					return err
				}
			}
			if _, err := ws.SetKeepInSession(ctx, true); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "saved %d rows, %d columns, %d charts to %s\n",
				ws.Dataset().Len(), len(ws.Columns()), len(ws.Charts()), db)
			return nil
		},
	}
	save.Flags().StringVarP(&template, "template", "t", "", "template to apply before saving")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.OpenBolt(db)
			if err != nil {
				return err
			}
			defer store.Close()

			ws, err := a.workspace(store)
			if err != nil {
				return err
			}
			restored, err := ws.SetKeepInSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			if !restored {
				fmt.Fprintln(a.stdout, "no saved session")
				return nil
			}
			return a.printJSON(map[string]any{
				"rows":    ws.Dataset().Len(),
				"columns": ws.Columns(),
				"charts":  ws.Evaluate(),
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.OpenBolt(db)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "session cleared")
			return nil
		},
	}

	cmd.AddCommand(save, show, clearCmd)
	return cmd
}
