package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tiai1/tiai-solutions/internal/charts"
	"github.com/tiai1/tiai-solutions/internal/dashboard"
	"github.com/tiai1/tiai-solutions/internal/session"
)

// errNoSession is returned by chart commands run before "session save".
var errNoSession = errors.New("no saved session; run dashctl session save first")

// chartFlags are the per-field overrides shared by add and update.
type chartFlags struct {
	config string
	kind   string
	title  string
	x      string
	y      []string
	group  string
	agg    string
}

func (f *chartFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.kind, "kind", "", "chart type: line, bar, stackedBar, area, pie, scatter, table")
	fs.StringVar(&f.title, "title", "", "chart title")
	fs.StringVar(&f.x, "x", "", "category column")
	fs.StringSliceVar(&f.y, "y", nil, "metric columns")
	fs.StringVar(&f.group, "group", "", "group-by column")
	fs.StringVar(&f.agg, "agg", "", "sum, average, count, min, max")
}

// apply overlays the flags the user set on cfg.
func (f *chartFlags) apply(fs *pflag.FlagSet, cfg *charts.Configuration) {
	if fs.Changed("kind") {
		cfg.Kind = charts.Kind(f.kind)
	}
	if fs.Changed("title") {
		cfg.Title = f.title
	}
	if fs.Changed("x") {
		cfg.XAxis = f.x
	}
	if fs.Changed("y") {
		cfg.YMetrics = append([]string(nil), f.y...)
	}
	if fs.Changed("group") {
		cfg.GroupBy = f.group
	}
	if fs.Changed("agg") {
		cfg.Aggregation = charts.Aggregation(f.agg)
	}
}

func (a *App) newChartCmd() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Edit the charts of the saved session",
		Long: `chart edits the working set kept by "dashctl session save". Every
subcommand prints the resulting chart configurations.`,
	}
	cmd.PersistentFlags().StringVar(&db, "db", defaultSessionDB, "session file")

	var addFlags chartFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a chart from --config JSON or field flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg charts.Configuration
			if addFlags.config != "" {
				if err := json.Unmarshal([]byte(addFlags.config), &cfg); err != nil {
					return fmt.Errorf("parse --config: %w", err)
				}
			}
			addFlags.apply(cmd.Flags(), &cfg)
			if cfg.Aggregation == "" {
				cfg.Aggregation = charts.AggSum
			}
			return a.editCharts(cmd.Context(), db, func(ctx context.Context, ws *dashboard.Workspace) error {
				c, err := ws.CreateChart(ctx, cfg)
				if err != nil {
					return err
				}
				for _, is := range c.Validate(ws.Columns().Names()) {
					fmt.Fprintf(a.stderr, "warning: %s\n", is)
				}
				return nil
			})
		},
	}
	addFlags.register(add.Flags())
	add.Flags().StringVar(&addFlags.config, "config", "", "chart configuration as JSON")

	dup := &cobra.Command{
		Use:   "dup ID",
		Short: "Duplicate a chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editCharts(cmd.Context(), db, func(ctx context.Context, ws *dashboard.Workspace) error {
				_, err := ws.DuplicateChart(ctx, args[0])
				return err
			})
		},
	}

	var updFlags chartFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a chart; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editCharts(cmd.Context(), db, func(ctx context.Context, ws *dashboard.Workspace) error {
				var (
					cfg   charts.Configuration
					found bool
				)
				for _, c := range ws.Charts() {
					if c.ID == args[0] {
						cfg, found = c, true
						break
					}
				}
				if !found {
					return fmt.Errorf("%w: %s", charts.ErrNotFound, args[0])
				}
				updFlags.apply(cmd.Flags(), &cfg)
				return ws.UpdateChart(ctx, cfg)
			})
		},
	}
	updFlags.register(update.Flags())

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editCharts(cmd.Context(), db, func(ctx context.Context, ws *dashboard.Workspace) error {
				return ws.RemoveChart(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(add, dup, update, rm)
	return cmd
}

// editCharts restores the session in db, runs fn and prints the working set.
// The workspace saves after every edit.
func (a *App) editCharts(ctx context.Context, db string, fn func(context.Context, *dashboard.Workspace) error) error {
	store, err := session.OpenBolt(db)
	if err != nil {
		return err
	}
	defer store.Close()

	ws, err := a.workspace(store)
	if err != nil {
		return err
	}
	restored, err := ws.SetKeepInSession(ctx, true)
	if err != nil {
		return err
	}
	if !restored {
		return errNoSession
	}
	if err := fn(ctx, ws); err != nil {
		return err
	}
	return a.printJSON(ws.Charts())
}
