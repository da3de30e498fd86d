package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"mandelbrot/output"
	"mandelbrot/task"
	"mandelbrot/tracing"
	"mandelbrot/turn"
)

const (
	Computing State = iota
	AwaitingTurn
	Writing
	Done
)

type State int32

func (s State) String() string {
	return []string{
		"Computing", "AwaitingTurn", "Writing", "Done",
	}[s]
}

// RowComputer fills a row buffer with color codes. It must be safe for concurrent use.
type RowComputer interface {
	ComputeRow(row int, codes []int)
	NewRowBuffer() []int
}

type Worker struct {
	assignment task.Assignment
	computer   RowComputer
	logger     bslogger.Logger
	token      *turn.Token
	writer     output.RowWriter

	rowsComputed atomic.Int64
	rowsWritten  atomic.Int64
	state        atomic.Int32
}

func NewWorker(id int, rows int, computer RowComputer, token *turn.Token, writer output.RowWriter, logger bslogger.Logger) *Worker {
	return &Worker{
		assignment: task.NewAssignment(id, token.Workers(), rows),
		computer:   computer,
		logger:     logger,
		token:      token,
		writer:     writer,
	}
}

func (w *Worker) ID() int {
	return w.assignment.WorkerID
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) RowsComputed() int {
	return int(w.rowsComputed.Load())
}

func (w *Worker) RowsWritten() int {
	return int(w.rowsWritten.Load())
}

// Run computes and writes every owned row in ascending order. A worker that owns no rows returns at
// once and never takes part in the turn cycle.
func (w *Worker) Run(ctx context.Context) error {
	defer w.state.Store(int32(Done))

	rowCount := w.assignment.Count()
	if rowCount == 0 {
		w.logger.Debug("No rows assigned")
		return nil
	}

	w.logger.Debugf("Processing %s", w.assignment.String())
	startTime := time.Now()

	// one buffer, overwritten for each row
	codes := w.computer.NewRowBuffer()
	for row := w.assignment.First(); !w.assignment.Done(row); row = w.assignment.Next(row) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("worker %d stopped before row %d: %w", w.ID(), row, err)
		}
		if err := w.processRow(ctx, row, codes); err != nil {
			return err
		}
	}

	w.logger.Debugf("Done processing %d rows in %s", rowCount, time.Since(startTime))
	return nil
}

func (w *Worker) processRow(ctx context.Context, row int, codes []int) (err error) {
	ctx, span := tracing.StartSpan(ctx, "row", tracing.Row(row), tracing.Worker(w.ID()))
	defer func() {
		tracing.EndSpan(span, err)
	}()

	w.state.Store(int32(Computing))
	w.computer.ComputeRow(row, codes)
	w.rowsComputed.Add(1)

	w.state.Store(int32(AwaitingTurn))
	if err = w.token.Acquire(ctx, w.ID()); err != nil {
		return fmt.Errorf("worker %d waiting to write row %d: %w", w.ID(), row, err)
	}

	// a failed write keeps the turn so no later row reaches the sink
	w.state.Store(int32(Writing))
	if err = w.writer.WriteRow(task.Row{Index: row, Codes: codes}); err != nil {
		return fmt.Errorf("worker %d writing row %d: %w", w.ID(), row, err)
	}
	w.rowsWritten.Add(1)

	if err = w.token.Release(w.ID()); err != nil {
		return fmt.Errorf("worker %d releasing turn after row %d: %w", w.ID(), row, err)
	}
	return nil
}
