// Package dashboard ties the Live Dashboard pieces together for one user:
// the loaded dataset, its column descriptors, the chart working set and the
// opt-in session persistence. Every mutation goes through a single mutex so
// there is exactly one logical writer.
//
// The workspace holds the uploaded data in process memory only. The only
// place it is ever written is the injected session.Store, and only while the
// user has opted in.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tiai1/tiai-solutions/internal/charts"
	"github.com/tiai1/tiai-solutions/internal/dataset"
	"github.com/tiai1/tiai-solutions/internal/datasource"
	"github.com/tiai1/tiai-solutions/internal/datasource/file"
	"github.com/tiai1/tiai-solutions/internal/logging"
	"github.com/tiai1/tiai-solutions/internal/metrics"
	pcsv "github.com/tiai1/tiai-solutions/internal/parser/csv"
	"github.com/tiai1/tiai-solutions/internal/probe"
	"github.com/tiai1/tiai-solutions/internal/session"
)

var (
	// ErrSuperseded is returned by a load that finished after a newer load
	// had started. Its result has been discarded.
	ErrSuperseded = errors.New("dashboard: superseded by a newer load")

	// ErrUnknownTemplate is returned by ApplyTemplate.
	ErrUnknownTemplate = errors.New("dashboard: unknown template")
)

const metricsJob = "dashboard"

// Options configures a Workspace. The zero value is usable.
type Options struct {
	// Store receives snapshots while keep-in-session is on. Nil means a
	// fresh in-memory store.
	Store  session.Store
	Limits file.Limits
	// Comma forces a delimiter; zero detects it.
	Comma  rune
	Logger *zap.Logger
}

// Workspace is the state behind one dashboard tab.
type Workspace struct {
	mu     sync.Mutex
	gen    uint64
	ds     dataset.Dataset
	cols   probe.Columns
	charts *charts.WorkingSet
	keep   bool

	store  session.Store
	limits file.Limits
	comma  rune
	log    *zap.Logger
}

// New returns an empty workspace.
func New(opt Options) *Workspace {
	st := opt.Store
	if st == nil {
		st = session.NewMemoryStore()
	}
	lim := opt.Limits
	if lim.MaxBytes == 0 && len(lim.Allowed) == 0 {
		lim = file.DefaultLimits()
	}
	return &Workspace{
		charts: charts.NewWorkingSet(),
		store:  st,
		limits: lim,
		comma:  opt.Comma,
		log:    logging.OrNop(opt.Logger),
	}
}

// ---- loading ----

// begin registers a new load and returns its generation. Any load still in
// flight becomes stale.
func (w *Workspace) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	return w.gen
}

func (w *Workspace) stale(g uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return g != w.gen
}

// LoadFile runs the upload gate, reads r and replaces the dataset. Reading
// happens without holding the lock; if another load starts meanwhile, this
// one's outcome is discarded and ErrSuperseded returned.
func (w *Workspace) LoadFile(ctx context.Context, name string, size int64, r io.Reader) (probe.Columns, error) {
	g := w.begin()
	start := time.Now()

	text, err := w.limits.ReadAll(ctx, name, size, r)
	if err != nil {
		metrics.RecordStep(metricsJob, "read", err, time.Since(start))
		if w.stale(g) {
			return nil, ErrSuperseded
		}
		w.log.Info("upload rejected", zap.String("file", name), zap.Int64("size", size), zap.Error(err))
		return nil, err
	}
	metrics.RecordStep(metricsJob, "read", nil, time.Since(start))
	return w.parseAndCommit(ctx, g, text, dataset.MsgNoData)
}

// LoadSource is LoadFile for a datasource.File; size and extension are
// checked before the source is opened.
func (w *Workspace) LoadSource(ctx context.Context, f datasource.File) (probe.Columns, error) {
	size, err := f.Size(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.limits.Check(f.Name(), size); err != nil {
		return nil, err
	}
	rc, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return w.LoadFile(ctx, f.Name(), size, rc)
}

// LoadText replaces the dataset with pasted text.
func (w *Workspace) LoadText(ctx context.Context, text string) (probe.Columns, error) {
	g := w.begin()
	if strings.TrimSpace(text) == "" {
		return nil, dataset.NewParseError(dataset.MsgPasteRequired)
	}
	return w.parseAndCommit(ctx, g, text, dataset.MsgNoValidData)
}

// parseAndCommit parses text and installs the result. noRows is the message
// reported when no data row survives: uploads and pastes word it differently.
func (w *Workspace) parseAndCommit(ctx context.Context, g uint64, text, noRows string) (probe.Columns, error) {
	start := time.Now()
	p := pcsv.NewParser(pcsv.Options{Comma: w.comma, TrimSpace: true, Logger: w.log})
	ds, st, err := p.Parse(strings.NewReader(text))
	metrics.RecordStep(metricsJob, "parse", err, time.Since(start))
	if err != nil {
		var pe *dataset.ParseError
		if errors.As(err, &pe) && pe.Msg == dataset.MsgNoValidData {
			err = &dataset.ParseError{Msg: noRows, Err: pe.Err}
		}
		if w.stale(g) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	metrics.RecordRows(metricsJob, "parsed", int64(st.Rows))
	metrics.RecordRows(metricsJob, "skipped", int64(st.Skipped))
	cols := probe.Profile(ds)

	w.mu.Lock()
	defer w.mu.Unlock()
	if g != w.gen {
		return nil, ErrSuperseded
	}
	// Charts survive a reload; configurations naming columns the new dataset
	// lacks evaluate to empty charts.
	w.ds, w.cols = ds, cols
	w.log.Debug("dataset loaded",
		zap.Int("rows", st.Rows), zap.Int("skipped", st.Skipped), zap.Int("columns", len(ds.Columns)))
	if err := w.persistLocked(ctx); err != nil {
		return append(probe.Columns(nil), cols...), err
	}
	return append(probe.Columns(nil), cols...), nil
}

// ---- session ----

func (w *Workspace) snapshotLocked() session.Snapshot {
	return session.Snapshot{
		Dataset: w.ds.Clone(),
		Columns: append(probe.Columns(nil), w.cols...),
		Charts:  w.charts.List(),
	}
}

// persistLocked saves the current state when the user opted in and there is
// data to save.
func (w *Workspace) persistLocked(ctx context.Context) error {
	if !w.keep || w.ds.Empty() {
		return nil
	}
	if err := w.store.Save(ctx, w.snapshotLocked()); err != nil {
		w.log.Warn("session save failed", zap.Error(err))
		return fmt.Errorf("dashboard: save session: %w", err)
	}
	return nil
}

func (w *Workspace) restoreLocked(s session.Snapshot) {
	w.gen++
	w.ds = s.Dataset
	w.cols = s.Columns
	if len(w.cols) == 0 {
		w.cols = probe.Profile(w.ds)
	}
	w.charts.Reset()
	w.charts.AddAll(s.Charts)
}

// KeepInSession reports whether session persistence is on.
func (w *Workspace) KeepInSession() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.keep
}

// SetKeepInSession toggles persistence. Turning it on restores a saved
// snapshot when the workspace is empty, otherwise saves the current state.
// Turning it off erases whatever was saved.
func (w *Workspace) SetKeepInSession(ctx context.Context, on bool) (restored bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keep = on
	if !on {
		if err := w.store.Clear(ctx); err != nil {
			return false, fmt.Errorf("dashboard: clear session: %w", err)
		}
		return false, nil
	}
	if w.ds.Empty() {
		s, ok, err := w.store.Load(ctx)
		if err != nil {
			return false, fmt.Errorf("dashboard: load session: %w", err)
		}
		if ok {
			w.restoreLocked(s)
			return true, nil
		}
		return false, nil
	}
	return false, w.persistLocked(ctx)
}

// ---- charts ----

// ApplyTemplate binds the named template to the current columns and appends
// the result to the working set.
func (w *Workspace) ApplyTemplate(ctx context.Context, name string) ([]charts.Configuration, error) {
	tpl, ok := charts.LookupTemplate(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	added := w.charts.AddAll(charts.BindTemplate(tpl, w.cols))
	return added, w.persistLocked(ctx)
}

// CreateChart adds a configuration built from scratch.
func (w *Workspace) CreateChart(ctx context.Context, cfg charts.Configuration) (charts.Configuration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.charts.Create(cfg)
	return c, w.persistLocked(ctx)
}

// DuplicateChart deep-copies a configuration under a fresh id.
func (w *Workspace) DuplicateChart(ctx context.Context, id string) (charts.Configuration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := w.charts.Duplicate(id)
	if err != nil {
		return charts.Configuration{}, err
	}
	return c, w.persistLocked(ctx)
}

// UpdateChart replaces a configuration by id.
func (w *Workspace) UpdateChart(ctx context.Context, cfg charts.Configuration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.charts.Update(cfg); err != nil {
		return err
	}
	return w.persistLocked(ctx)
}

// RemoveChart deletes a configuration; unknown ids are a no-op.
func (w *Workspace) RemoveChart(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.charts.Remove(id)
	return w.persistLocked(ctx)
}

// Clear drops the dataset and charts, and any saved snapshot.
func (w *Workspace) Clear(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.ds, w.cols = dataset.Dataset{}, nil
	w.charts.Reset()
	if w.keep {
		if err := w.store.Clear(ctx); err != nil {
			return fmt.Errorf("dashboard: clear session: %w", err)
		}
	}
	return nil
}

// ---- reads ----

// Charts returns a copy of the working set in display order.
func (w *Workspace) Charts() []charts.Configuration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.charts.List()
}

// Columns returns a copy of the current column profile.
func (w *Workspace) Columns() probe.Columns {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append(probe.Columns(nil), w.cols...)
}

// Dataset returns a deep copy of the loaded dataset.
func (w *Workspace) Dataset() dataset.Dataset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ds.Clone()
}

// Evaluate recomputes every chart against the current dataset.
func (w *Workspace) Evaluate() []charts.Specification {
	w.mu.Lock()
	cfgs := w.charts.List()
	ds := w.ds
	w.mu.Unlock()

	start := time.Now()
	out := charts.EvaluateAll(cfgs, ds)
	metrics.RecordStep(metricsJob, "evaluate", nil, time.Since(start))
	return out
}
