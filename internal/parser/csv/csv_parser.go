// Package csv turns delimited text (uploaded files or pasted tables) into a
// typed dataset. The first record is the header; data records whose width
// differs from the header are dropped and counted rather than failing the
// whole input.
package csv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/tiai1/tiai-solutions/internal/dataset"
	"github.com/tiai1/tiai-solutions/internal/probe"
)

// Options configures the parser. The zero value detects the delimiter and
// keeps cells untrimmed; DefaultOptions is what the dashboard uses.
type Options struct {
	// Comma specifies the field delimiter. When zero it is detected from the
	// header line among ',', '\t', ';' and '|'.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from every cell.
	TrimSpace bool

	// SkipLogLimit bounds how many dropped rows are logged individually.
	// Zero means 400.
	SkipLogLimit int

	// Logger receives debug lines for dropped rows. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions detects the delimiter and trims cells.
func DefaultOptions() Options { return Options{TrimSpace: true} }

// Stats summarizes one Parse call.
type Stats struct {
	Rows    int
	Skipped int
	Comma   rune
}

// Parser parses delimited text according to Options. It is safe to reuse
// across inputs, but Parser itself is not concurrency-safe.
type Parser struct {
	opt Options
	log *zap.Logger
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	lg := opt.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	if opt.SkipLogLimit <= 0 {
		opt.SkipLogLimit = 400
	}
	return &Parser{opt: opt, log: lg}
}

// Parse is the pasted-text entry point: DefaultOptions over raw.
func Parse(raw string) (dataset.Dataset, error) {
	ds, _, err := NewParser(DefaultOptions()).Parse(strings.NewReader(raw))
	return ds, err
}

// sniffBytes is how much input is inspected for delimiter detection.
const sniffBytes = 64 * 1024

// Parse reads all records from r. It fails with a *dataset.ParseError when
// there is no usable header or when no data row survives width filtering.
func (p *Parser) Parse(r io.Reader) (dataset.Dataset, Stats, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	comma := p.opt.Comma
	if comma == 0 {
		head, err := br.Peek(sniffBytes)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return dataset.Dataset{}, Stats{}, fmt.Errorf("csv: read: %w", err)
		}
		comma = DetectDelimiter(head)
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	stats := Stats{Comma: comma}

	h, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return dataset.Dataset{}, stats, dataset.NewParseError(dataset.MsgNoData)
	}
	if err != nil {
		return dataset.Dataset{}, stats, &dataset.ParseError{Msg: dataset.MsgNoData, Err: err}
	}
	headers := normalizeHeaders(StripHeaderBOM(h), p.opt)
	if allBlank(headers) {
		return dataset.Dataset{}, stats, dataset.NewParseError(dataset.MsgNoData)
	}

	ds := dataset.Dataset{Columns: uniqueColumns(headers)}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return dataset.Dataset{}, stats, fmt.Errorf("csv: read: %w", err)
			}
			p.skip(&stats, line, "malformed record", zap.Error(err))
			continue
		}
		if len(rec) != len(headers) {
			p.skip(&stats, line, "incorrect number of fields",
				zap.Int("expected", len(headers)), zap.Int("got", len(rec)))
			continue
		}

		row := make(dataset.Row, len(ds.Columns))
		for i, cell := range rec {
			if p.opt.TrimSpace {
				cell = strings.TrimSpace(cell)
			}
			row[headers[i]] = probe.Infer(cell)
		}
		ds.Rows = append(ds.Rows, row)
	}

	stats.Rows = len(ds.Rows)
	if stats.Rows == 0 {
		return dataset.Dataset{}, stats, dataset.NewParseError(dataset.MsgNoValidData)
	}
	return ds, stats, nil
}

func (p *Parser) skip(st *Stats, line int, reason string, fields ...zap.Field) {
	if st.Skipped < p.opt.SkipLogLimit {
		p.log.Debug("skipping row", append([]zap.Field{zap.Int("line", line), zap.String("reason", reason)}, fields...)...)
	}
	st.Skipped++
}

// normalizeHeaders trims header cells when TrimSpace is set. Names are
// otherwise used verbatim as row keys.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		if opt.TrimSpace {
			col = strings.TrimSpace(col)
		}
		res[i] = col
	}
	return res
}

// uniqueColumns keeps the first occurrence of each header name.
func uniqueColumns(h []string) []string {
	seen := make(map[string]struct{}, len(h))
	out := make([]string, 0, len(h))
	for _, c := range h {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// candidates are the delimiters DetectDelimiter chooses from, in tie-break
// order.
var candidates = []rune{',', '\t', ';', '|'}

// DetectDelimiter inspects the first line of sample (quotes respected) and
// returns the most frequent candidate delimiter, or ',' when none occurs.
func DetectDelimiter(sample []byte) rune {
	counts := make(map[rune]int, len(candidates))
	inQuotes := false
	for _, r := range string(sample) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if r == '\n' || r == '\r' {
			break
		}
		counts[r]++
	}
	best, bestN := ',', 0
	for _, c := range candidates {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best
}

// DecodeDelimiter converts a user-supplied delimiter name to a rune. Empty
// input means auto-detect (0).
func DecodeDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\\t", "\t", "tab", "tsv":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	rs := []rune(s)
	if len(rs) == 1 {
		return rs[0], nil
	}
	return 0, fmt.Errorf("csv: unsupported delimiter %q", s)
}
