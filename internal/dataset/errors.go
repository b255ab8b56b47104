package dataset

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrParse             = errors.New("parse error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileTooLarge      = errors.New("file too large")
)

// User-facing messages.
const (
	MsgNoData        = "No data found in file"
	MsgNoValidData   = "No valid data found"
	MsgPasteRequired = "Please paste some data"
	MsgTooLarge      = "File size must be less than 5MB"
	MsgConvertExcel  = "Excel file support requires additional libraries. Please convert to CSV format."
	MsgCSVOnly       = "Only CSV files (.csv) are supported"
)

// ParseError reports malformed or empty tabular input.
type ParseError struct {
	Msg string
	Err error
}

// NewParseError returns a ParseError carrying msg.
func NewParseError(msg string) *ParseError { return &ParseError{Msg: msg} }

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return MsgNoData
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UnsupportedFormatError reports a rejected file extension. It is raised
// before any byte of the file is parsed.
type UnsupportedFormatError struct {
	Name string
	Msg  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Msg == "" {
		return MsgCSVOnly
	}
	return e.Msg
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// FileTooLargeError reports a file above the upload cap.
type FileTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	if e.Limit <= 0 || e.Limit == 5<<20 {
		return MsgTooLarge
	}
	return "File size must be less than " + formatBytes(e.Limit)
}

// formatBytes renders n in the largest unit that keeps it whole: 5MB, 512KB,
// 1000 bytes.
func formatBytes(n int64) string {
	switch {
	case n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func (e *FileTooLargeError) Is(target error) bool { return target == ErrFileTooLarge }
