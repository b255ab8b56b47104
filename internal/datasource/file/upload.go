package file

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tiai1/tiai-solutions/internal/dataset"
)

// MaxUploadBytes is the dashboard's upload cap.
const MaxUploadBytes int64 = 5 << 20

// Limits is the upload policy. The zero value means 5 MB and ".csv" only.
type Limits struct {
	MaxBytes int64
	// Allowed lists lower-case extensions including the dot. Listing ".xlsx"
	// or ".xls" here selects the permissive variant, whose rejection message
	// names every allowed extension.
	Allowed []string
}

// DefaultLimits is the dashboard policy.
func DefaultLimits() Limits { return Limits{MaxBytes: MaxUploadBytes, Allowed: []string{".csv"}} }

func (l Limits) max() int64 {
	if l.MaxBytes <= 0 {
		return MaxUploadBytes
	}
	return l.MaxBytes
}

func (l Limits) allowed() []string {
	if len(l.Allowed) == 0 {
		return []string{".csv"}
	}
	return l.Allowed
}

func isExcel(ext string) bool { return ext == ".xlsx" || ext == ".xls" }

// Check validates a file by name and declared size. Size is checked first so
// an oversized workbook reports the size problem.
func (l Limits) Check(name string, size int64) error {
	if size > l.max() {
		return &dataset.FileTooLargeError{Name: name, Size: size, Limit: l.max()}
	}
	ext := strings.ToLower(filepath.Ext(name))
	allowed := l.allowed()
	if slices.Contains(allowed, ext) {
		if isExcel(ext) {
			// Accepted by policy but still not parseable as delimited text.
			return &dataset.UnsupportedFormatError{Name: name, Msg: dataset.MsgConvertExcel}
		}
		return nil
	}
	if isExcel(ext) && !slices.ContainsFunc(allowed, isExcel) {
		return &dataset.UnsupportedFormatError{Name: name, Msg: dataset.MsgConvertExcel}
	}
	return &dataset.UnsupportedFormatError{Name: name, Msg: formatsMessage(allowed)}
}

// formatsMessage renders "Only CSV files (.csv) are supported" or, for the
// permissive list, "Only CSV and Excel files (.csv, .xlsx, .xls) are
// supported".
func formatsMessage(allowed []string) string {
	if len(allowed) == 1 && allowed[0] == ".csv" {
		return dataset.MsgCSVOnly
	}
	var kinds []string
	if slices.Contains(allowed, ".csv") {
		kinds = append(kinds, "CSV")
	}
	if slices.ContainsFunc(allowed, isExcel) {
		kinds = append(kinds, "Excel")
	}
	if len(kinds) == 0 {
		kinds = append(kinds, "supported")
	}
	return fmt.Sprintf("Only %s files (%s) are supported", strings.Join(kinds, " and "), strings.Join(allowed, ", "))
}

// ReadAll checks the file and then reads at most MaxBytes+1 bytes, so a
// stream longer than its declared size still fails with FileTooLargeError
// instead of being buffered whole.
func (l Limits) ReadAll(ctx context.Context, name string, size int64, r io.Reader) (string, error) {
	if err := l.Check(name, size); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(io.LimitReader(r, l.max()+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(b)) > l.max() {
		return "", &dataset.FileTooLargeError{Name: name, Size: int64(len(b)), Limit: l.max()}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(b), nil
}
