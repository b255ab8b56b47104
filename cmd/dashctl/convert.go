package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tiai1/tiai-solutions/internal/datasource/file"
)

func (a *App) newConvertCmd() *cobra.Command {
	var sheet, out string
	cmd := &cobra.Command{
		Use:   "convert BOOK.xlsx",
		Short: "Convert a workbook sheet to CSV",
		Long: `The dashboard accepts CSV only. convert turns one sheet of an Excel workbook
into CSV locally so it can be loaded. The first sheet is used unless --sheet
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			text, err := file.ConvertXLSX(cmd.Context(), f, sheet)
			if err != nil {
				return err
			}
			w, closeFn, err := a.output(out)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, text); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}
