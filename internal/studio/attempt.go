package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tracker-studio/internal/model"
	"tracker-studio/internal/processor"
	"tracker-studio/internal/resultstore"
)

// Attempt is one submission in flight. Its fields are a snapshot taken at
// submit time; later edits to the controls or selection do not affect it.
type Attempt struct {
	ID        string
	Selection model.FileSelection
	Params    model.RenderParameters
	StartedAt time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	proc    Processor
	results Spooler
	logger  *slog.Logger

	// guarded by the owning Controller's mutex
	settled    bool
	superseded bool
}

// Outcome is what Run hands back to the event loop.
type Outcome struct {
	AttemptID string
	Result    *resultstore.Handle
	Err       error
	Duration  time.Duration
}

// Run performs the network round trip under the context given to Submit.
// It touches no controller state and is safe to call off the event loop.
// A panic in the round trip is reported as a connection failure.
func (a *Attempt) Run() (out Outcome) {
	started := time.Now()
	out.AttemptID = a.ID
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("render attempt panicked",
				slog.String("attempt_id", a.ID),
				slog.Any("panic", r),
			)
			if out.Result != nil {
				_ = out.Result.Release()
			}
			out = Outcome{AttemptID: a.ID, Err: fmt.Errorf("render attempt panicked: %v", r)}
		}
		out.Duration = time.Since(started)
	}()

	res, err := a.proc.Process(a.ctx, a.Selection, a.Params)
	if err != nil {
		out.Err = err
		return out
	}
	defer res.Body.Close()

	handle, err := a.results.Spool(res.Body)
	if err != nil {
		if ctxErr := a.ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		out.Err = fmt.Errorf("receive render result: %w", err)
		return out
	}
	out.Result = handle
	return out
}

// Cancel aborts the round trip if it is still running.
func (a *Attempt) Cancel() {
	a.cancel()
}

// Processor is the remote half of a submission.
type Processor interface {
	Process(ctx context.Context, sel model.FileSelection, params model.RenderParameters) (*processor.Result, error)
}

// Spooler stores a successful response body.
type Spooler interface {
	Spool(r io.Reader) (*resultstore.Handle, error)
}

// ParameterSource is read once per submission.
type ParameterSource interface {
	Collect() model.RenderParameters
}
