package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"go.opentelemetry.io/otel/attribute"

	"mandelbrot/misc"
	"mandelbrot/output"
	"mandelbrot/tracing"
	"mandelbrot/turn"
	"mandelbrot/worker"
)

type Renderer struct {
	computer worker.RowComputer
	logger   bslogger.Logger
	settings Settings
	workers  []*worker.Worker
	writer   output.RowWriter
}

func NewRenderer(settings Settings, computer worker.RowComputer, writer output.RowWriter) *Renderer {
	return &Renderer{
		computer: computer,
		logger:   misc.NewLogger(fmt.Sprintf("Renderer %s", settings.RunName), settings.Verbose),
		settings: settings,
		writer:   writer,
	}
}

// Run renders every row with settings.Workers goroutines and returns once all of them are done. The
// first worker error stops the others and is returned; the writer is only closed after a full image
// and is aborted instead when it supports that.
func (r *Renderer) Run(ctx context.Context) (err error) {
	rows := r.settings.MandelbrotSettings.Rows
	token, err := turn.New(r.settings.Workers)
	if err != nil {
		return err
	}

	ctx, span := tracing.StartSpan(ctx, "render",
		attribute.String("run.id", r.settings.RunID),
		attribute.Int("rows", rows),
		attribute.Int("workers", r.settings.Workers),
	)
	defer func() {
		tracing.EndSpan(span, err)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.workers = make([]*worker.Worker, r.settings.Workers)
	for id := range r.workers {
		logger := misc.NewLogger(fmt.Sprintf("Worker %d", id), r.settings.Verbose)
		r.workers[id] = worker.NewWorker(id, rows, r.computer, token, r.writer, logger)
	}

	r.logger.Infof("Rendering %d rows with %d workers [run %s]", rows, len(r.workers), r.settings.RunID)
	startTime := time.Now()

	done := make(chan struct{})
	go r.tickers(done)

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	for _, w := range r.workers {
		wg.Add(1)
		go func(w *worker.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(w)
	}

	// Wait for all workers to be done with their rows
	wg.Wait()
	close(done)

	if firstErr != nil {
		r.logger.Errorf("Render failed after %d rows: %s", r.RowsWritten(), firstErr)
		if aborter, ok := r.writer.(output.Aborter); ok {
			misc.CheckError(aborter.Abort(firstErr), r.logger, misc.Warning)
		}
		return firstErr
	}
	if err = r.writer.Close(); err != nil {
		return err
	}

	r.logger.Infof("Done rendering %d rows in %s", r.RowsWritten(), time.Since(startTime))
	return nil
}

func (r *Renderer) RowsComputed() int {
	total := 0
	for _, w := range r.workers {
		total += w.RowsComputed()
	}
	return total
}

func (r *Renderer) RowsWritten() int {
	total := 0
	for _, w := range r.workers {
		total += w.RowsWritten()
	}
	return total
}

func (r *Renderer) tickers(done <-chan struct{}) {
	period := time.Duration(r.settings.ProgressSeconds) * time.Second
	if period <= 0 {
		period = 30 * time.Second
	}
	heartBeat := time.NewTicker(period)
	defer heartBeat.Stop()

	for {
		select {
		case <-done:
			return

		case <-heartBeat.C:
			states := make(map[worker.State]int)
			for _, w := range r.workers {
				states[w.State()]++
			}
			r.logger.Infof("Rows [Computed: %d] [Written: %d] | Workers [Computing: %d] [Awaiting: %d] [Writing: %d] [Done: %d]",
				r.RowsComputed(), r.RowsWritten(),
				states[worker.Computing], states[worker.AwaitingTurn], states[worker.Writing], states[worker.Done])
		}
	}
}
