package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ConvertXLSX renders one worksheet as CSV text. It is an explicit, local
// step offered by the CLI so a workbook can be fed through the CSV gate; the
// upload gate itself keeps rejecting Excel files. An empty sheet name selects
// the first sheet. Ragged rows are padded to the widest row so the parser
// does not drop them for width mismatch.
func ConvertXLSX(ctx context.Context, r io.Reader, sheet string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return "", fmt.Errorf("xlsx: workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if len(row) == 0 {
			continue
		}
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("xlsx: write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("xlsx: write csv: %w", err)
	}
	return sb.String(), nil
}
