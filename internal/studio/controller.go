// Package studio owns the upload, configure, submit and result workflow.
//
// All state changes go through Controller. The only work that leaves the
// caller's goroutine is Attempt.Run; its Outcome comes back through Settle.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker-studio/internal/model"
	"tracker-studio/internal/resultstore"
	"tracker-studio/internal/selection"
)

const (
	TriggerIdleLabel = "INITIATE RENDER SEQUENCE"
	TriggerBusyLabel = "RENDERING IN PROGRESS..."
)

type Trigger struct {
	Label   string
	Enabled bool
}

func idleTrigger() Trigger {
	return Trigger{Label: TriggerIdleLabel, Enabled: true}
}

func busyTrigger() Trigger {
	return Trigger{Label: TriggerBusyLabel, Enabled: false}
}

type Options struct {
	Selection *selection.Store
	Params    ParameterSource
	Processor Processor
	Results   Spooler
	Logger    *slog.Logger
	// Notify receives every blocking notice, after the controller has
	// finished updating its own state.
	Notify func(*Error)
}

type Controller struct {
	mu sync.Mutex

	selection *selection.Store
	params    ParameterSource
	proc      Processor
	results   Spooler
	logger    *slog.Logger
	notify    func(*Error)

	phase    model.Phase
	trigger  Trigger
	result   *resultstore.Handle
	notice   *Error
	inflight *Attempt
	closed   bool
}

// View is everything a front end needs to draw the studio.
type View struct {
	Phase           model.Phase
	Selection       model.FileSelection
	HasSelection    bool
	Trigger         Trigger
	DownloadVisible bool
	Result          *resultstore.Handle
	Notice          *Error
	AttemptID       string
}

func New(opts Options) (*Controller, error) {
	if opts.Params == nil {
		return nil, fmt.Errorf("parameter source is required")
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if opts.Results == nil {
		return nil, fmt.Errorf("result store is required")
	}
	store := opts.Selection
	if store == nil {
		store = selection.NewStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		selection: store,
		params:    opts.Params,
		proc:      opts.Processor,
		results:   opts.Results,
		logger:    logger,
		notify:    opts.Notify,
		phase:     model.PhaseAwaitingFile,
		trigger:   idleTrigger(),
	}
	if _, ok := store.Current(); ok {
		c.phase = model.PhaseReadyToRender
	}
	return c, nil
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, ok := c.selection.Current()
	v := View{
		Phase:           c.phase,
		Selection:       sel,
		HasSelection:    ok,
		Trigger:         c.trigger,
		DownloadVisible: c.phase == model.PhaseResultReady && c.result != nil,
		Result:          c.result,
		Notice:          c.notice,
	}
	if c.inflight != nil {
		v.AttemptID = c.inflight.ID
	}
	return v
}

func (c *Controller) Phase() model.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) CurrentSelection() (model.FileSelection, bool) {
	return c.selection.Current()
}

// Result returns the shown render result, or nil outside ResultReady.
func (c *Controller) Result() *resultstore.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != model.PhaseResultReady {
		return nil
	}
	return c.result
}

// SelectFile replaces the selection and moves to ReadyToRender from any
// phase. A render still in flight is cancelled and its outcome will be
// discarded.
func (c *Controller) SelectFile(candidate model.FileSelection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.selection.Select(candidate)
	if a := c.inflight; a != nil {
		a.superseded = true
		a.cancel()
		c.inflight = nil
		c.finishLocked(a)
		c.logger.Info("render superseded by new selection",
			slog.String("attempt_id", a.ID),
			slog.String("file", candidate.Name),
		)
	}
	c.releaseResultLocked()
	c.notice = nil
	if err := model.TransitionPhase(&c.phase, model.PhaseReadyToRender); err != nil {
		return err
	}
	c.logger.Debug("file selected",
		slog.String("file", candidate.Name),
		slog.String("media_type", candidate.MediaType),
		slog.Int64("size", candidate.Size),
	)
	return nil
}

// Submit validates preconditions and starts a render. The returned Attempt
// must be Run and its Outcome passed to Settle.
func (c *Controller) Submit(ctx context.Context) (*Attempt, error) {
	a, err := c.submit(ctx)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind == KindNoFileSelected {
			c.emit(e)
		}
		return nil, err
	}
	return a, nil
}

func (c *Controller) submit(ctx context.Context) (*Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	sel, ok := c.selection.Current()
	if !ok {
		c.notice = ErrNoFileSelected
		return nil, ErrNoFileSelected
	}
	if c.inflight != nil {
		return nil, ErrSubmissionInFlight
	}
	if err := model.TransitionPhase(&c.phase, model.PhaseRendering); err != nil {
		return nil, err
	}

	c.trigger = busyTrigger()
	c.releaseResultLocked()
	c.notice = nil

	actx, cancel := context.WithCancel(ctx)
	a := &Attempt{
		ID:        uuid.NewString(),
		Selection: sel,
		Params:    c.params.Collect(),
		StartedAt: time.Now(),
		ctx:       actx,
		cancel:    cancel,
		proc:      c.proc,
		results:   c.results,
		logger:    c.logger,
	}
	c.inflight = a
	c.logger.Info("render started",
		slog.String("attempt_id", a.ID),
		slog.String("file", sel.Name),
		slog.String("shape", a.Params.Shape),
		slog.Int("max_blobs", a.Params.MaxBlobs),
	)
	return a, nil
}

// Settle applies an Outcome on the event loop. It returns the notice fired
// for a failure, or nil on success and for discarded stale outcomes. The
// trigger is restored on every path.
func (c *Controller) Settle(out Outcome) *Error {
	notice, _ := c.settle(out)
	if notice != nil {
		c.emit(notice)
	}
	return notice
}

func (c *Controller) settle(out Outcome) (*Error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.inflight
	if a == nil || a.ID != out.AttemptID {
		if out.Result != nil {
			_ = out.Result.Release()
		}
		c.logger.Debug("discarded stale render outcome", slog.String("attempt_id", out.AttemptID))
		return nil, false
	}
	c.inflight = nil
	defer c.finishLocked(a)

	if out.Err == nil && out.Result != nil {
		c.releaseResultLocked()
		c.result = out.Result
		if err := model.TransitionPhase(&c.phase, model.PhaseResultReady); err != nil {
			c.logger.Error("workflow transition failed", slog.String("error", err.Error()))
		}
		c.logger.Info("render finished",
			slog.String("attempt_id", a.ID),
			slog.Int64("bytes", out.Result.Size()),
			slog.Duration("duration", out.Duration),
		)
		return nil, true
	}

	err := out.Err
	if err == nil {
		err = errors.New("render returned no result")
	}
	notice := classify(err)
	if terr := model.TransitionPhase(&c.phase, model.PhaseReadyToRender); terr != nil {
		c.logger.Error("workflow transition failed", slog.String("error", terr.Error()))
	}
	c.notice = notice
	c.logger.Warn("render failed",
		slog.String("attempt_id", a.ID),
		slog.String("kind", string(notice.Kind)),
		slog.String("error", err.Error()),
		slog.Duration("duration", out.Duration),
	)
	return notice, true
}

// SubmitAndWait runs a whole submission on the calling goroutine.
func (c *Controller) SubmitAndWait(ctx context.Context) (*resultstore.Handle, error) {
	a, err := c.Submit(ctx)
	if err != nil {
		return nil, err
	}
	out := a.Run()
	notice, applied := c.settle(out)
	if notice != nil {
		c.emit(notice)
		return nil, notice
	}
	if !applied {
		return nil, ErrSuperseded
	}
	return out.Result, nil
}

// Download saves the shown result to dest.
func (c *Controller) Download(dest string) (string, error) {
	h := c.Result()
	if h == nil {
		return "", ErrNoResult
	}
	path, err := h.SaveAs(dest)
	if err != nil {
		return "", err
	}
	c.logger.Info("result saved", slog.String("path", path))
	return path, nil
}

func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = nil
}

// Close cancels any render in flight and releases the shown result.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if a := c.inflight; a != nil {
		a.superseded = true
		a.cancel()
		c.inflight = nil
		c.finishLocked(a)
	}
	c.releaseResultLocked()
}

// finishLocked is the per-attempt cleanup: it runs at most once and puts
// the trigger back.
func (c *Controller) finishLocked(a *Attempt) {
	if a.settled {
		return
	}
	a.settled = true
	a.cancel()
	c.trigger = idleTrigger()
}

func (c *Controller) releaseResultLocked() {
	if c.result == nil {
		return
	}
	if err := c.result.Release(); err != nil {
		c.logger.Warn("release render result", slog.String("error", err.Error()))
	}
	c.result = nil
}

func (c *Controller) emit(e *Error) {
	if c.notify != nil {
		c.notify(e)
	}
}
