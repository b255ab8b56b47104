package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiai1/tiai-solutions/internal/charts"
	"github.com/tiai1/tiai-solutions/internal/dataset"
	"github.com/tiai1/tiai-solutions/internal/render"
)

// plain converts typed cells to their natural JSON form.
func plain(v dataset.Value) any {
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		return f
	case dataset.KindBool:
		b, _ := v.BoolValue()
		return b
	case dataset.KindDate:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}

func (a *App) newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a table and print its rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace(nil)
			if err != nil {
				return err
			}
			if _, err := a.load(cmd.Context(), ws, args[0]); err != nil {
				return err
			}
			ds := ws.Dataset()
			rows := make([]map[string]any, len(ds.Rows))
			for i, r := range ds.Rows {
				m := make(map[string]any, len(r))
				for k, v := range r {
					m[k] = plain(v)
				}
				rows[i] = m
			}
			return a.printJSON(map[string]any{"columns": ds.Columns, "rows": rows})
		},
	}
}

func (a *App) newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile FILE",
		Short: "Print the inferred column descriptors as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace(nil)
			if err != nil {
				return err
			}
			cols, err := a.load(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			return a.printJSON(cols)
		},
	}
}

func (a *App) newTemplatesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the dashboard templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := charts.Templates()
			if asJSON {
				return a.printJSON(ts)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCHARTS\tDESCRIPTION")
			for _, t := range ts {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.Slug(), t.Name, len(t.Charts), t.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

// evaluate loads path, applies the template and evaluates every chart.
func (a *App) evaluate(cmd *cobra.Command, path, template string) ([]charts.Specification, error) {
	ws, err := a.workspace(nil)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if _, err := a.load(ctx, ws, path); err != nil {
		return nil, err
	}
	if _, err := ws.ApplyTemplate(ctx, template); err != nil {
		return nil, err
	}
	return ws.Evaluate(), nil
}

func (a *App) newApplyCmd() *cobra.Command {
	var template string
	var options bool
	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Bind a template to a table and print the evaluated charts",
		Long: `Bind a template to the table's columns, evaluate every chart and print the
specifications as JSON. With --options the renderer payload is printed instead.

Examples:
  dashctl apply sales.csv --template "KPI Overview"
  dashctl apply sales.csv --template time-series-analysis --options`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := a.evaluate(cmd, args[0], template)
			if err != nil {
				return err
			}
			if !options {
				return a.printJSON(specs)
			}
			out := make([]charts.Options, len(specs))
			for i, s := range specs {
				out[i] = charts.BuildOptions(s)
			}
			return a.printJSON(out)
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "template name or id (required)")
	cmd.Flags().BoolVar(&options, "options", false, "print renderer options instead of specifications")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func (a *App) newRenderCmd() *cobra.Command {
	var template, out, title string
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a template over a table as a standalone HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := a.evaluate(cmd, args[0], template)
			if err != nil {
				return err
			}
			w, closeFn, err := a.output(out)
			if err != nil {
				return err
			}
			if err := render.Page(w, title, specs); err != nil {
				_ = closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(a.stderr, "wrote %d charts to %s\n", len(specs), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "template name or id (required)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&title, "title", render.DefaultTitle, "page title")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
