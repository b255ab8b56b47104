package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tiai1/tiai-solutions/internal/dashboard"
	"github.com/tiai1/tiai-solutions/internal/datasource/file"
	"github.com/tiai1/tiai-solutions/internal/logging"
	pcsv "github.com/tiai1/tiai-solutions/internal/parser/csv"
	"github.com/tiai1/tiai-solutions/internal/probe"
	"github.com/tiai1/tiai-solutions/internal/session"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	delimiter string
	logLevel  string
}

// App is the dashctl command tree.
type App struct {
	root   *cobra.Command
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions
}

// New builds the command tree writing to the process streams.
func New() *App {
	a := &App{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	a.root = &cobra.Command{
		Use:   "dashctl",
		Short: "Local Live Dashboard: parse, profile, chart and render tabular data",
		Long: `dashctl runs the Live Dashboard engine against files on this machine.

FILE may be "-" to read the table from standard input. Files go through the
same gate as the web dashboard: CSV only, at most 5 MB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := a.root.PersistentFlags()
	pf.StringVar(&a.opts.delimiter, "delimiter", "", `field delimiter: ",", tab, ";", "|" (default: detect)`)
	pf.StringVar(&a.opts.logLevel, "log-level", "warn", "debug, info, warn, error")

	a.root.AddCommand(
		a.newParseCmd(),
		a.newProfileCmd(),
		a.newTemplatesCmd(),
		a.newApplyCmd(),
		a.newRenderCmd(),
		a.newConvertCmd(),
		a.newSessionCmd(),
		a.newChartCmd(),
	)
	return a
}

// WithIO sets custom streams, for tests.
func (a *App) WithIO(stdin io.Reader, stdout, stderr io.Writer) *App {
	a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	a.root.SetIn(stdin)
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the command line with SIGINT/SIGTERM cancelling ctx.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) logger() (*zap.Logger, error) {
	return logging.New(a.opts.logLevel, "console")
}

// workspace builds a Workspace honoring the global flags. store may be nil.
func (a *App) workspace(store session.Store) (*dashboard.Workspace, error) {
	comma, err := pcsv.DecodeDelimiter(a.opts.delimiter)
	if err != nil {
		return nil, err
	}
	lg, err := a.logger()
	if err != nil {
		return nil, err
	}
	return dashboard.New(dashboard.Options{
		Store:  store,
		Limits: file.DefaultLimits(),
		Comma:  comma,
		Logger: lg,
	}), nil
}

// load reads path ("-" for stdin) into ws.
func (a *App) load(ctx context.Context, ws *dashboard.Workspace, path string) (probe.Columns, error) {
	if path == "-" {
		b, err := io.ReadAll(io.LimitReader(a.stdin, file.MaxUploadBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return ws.LoadFile(ctx, "stdin.csv", int64(len(b)), bytes.NewReader(b))
	}
	return ws.LoadSource(ctx, file.NewLocal(path))
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output opens path for writing; "" and "-" mean stdout.
func (a *App) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
