package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"homebroker/internal/adapter"
	"homebroker/internal/adapter/enum"
	"homebroker/internal/normalize"
	"homebroker/internal/obs"
	"homebroker/pkg/exception"
)

// DefaultInterval is the drain period of the pipeline.
const DefaultInterval = 100 * time.Millisecond

// Pipeline buffers hub pushes in three queues and, once per interval, drains
// them, coalesces repeated instruments, normalizes the batches and invokes the
// consumer callbacks from a single goroutine.
type Pipeline struct {
	interval  time.Duration
	callbacks *Callbacks
	metrics   *obs.Metrics

	portfolio queue
	board     queue
	orderBook queue

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPipeline builds a stopped pipeline. A non-positive interval falls back to DefaultInterval.
func NewPipeline(callbacks *Callbacks, interval time.Duration, metrics *obs.Metrics) *Pipeline {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if callbacks == nil {
		callbacks = &Callbacks{}
	}

	return &Pipeline{
		interval:  interval,
		callbacks: callbacks,
		metrics:   metrics,
	}
}

// PushPortfolio enqueues personal portfolio records.
func (p *Pipeline) PushPortfolio(records ...adapter.RawRecord) {
	p.portfolio.push(records...)
	p.metrics.ObserveReceived(enum.StreamPortfolio, len(records))
}

// PushBoard enqueues securities, options and repos records.
func (p *Pipeline) PushBoard(records ...adapter.RawRecord) {
	p.board.push(records...)
	p.metrics.ObserveReceived(enum.StreamBoard, len(records))
}

// PushOrderBook enqueues order book records.
func (p *Pipeline) PushOrderBook(records ...adapter.RawRecord) {
	p.orderBook.push(records...)
	p.metrics.ObserveReceived(enum.StreamOrderBook, len(records))
}

// Pending is the number of records waiting for the next drain.
func (p *Pipeline) Pending() int {
	return p.portfolio.len() + p.board.len() + p.orderBook.len()
}

// Start launches the drain goroutine. It runs until Stop or until ctx is done.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return exception.ErrPipelineRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)

	return nil
}

// Running reports whether the drain goroutine was started and not stopped.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// Stop signals the drain goroutine and waits for it to return. Records still
// queued are discarded. Once Stop returns no callback fires. Stop is idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if done == nil {
		return
	}

	cancel()
	<-done

	p.portfolio.swap()
	p.board.swap()
	p.orderBook.swap()
}

func (p *Pipeline) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Flush()
		}
	}
}

// Flush runs one drain cycle synchronously.
func (p *Pipeline) Flush() {
	p.process(enum.StreamPortfolio, p.callbacks.HasPersonalPortfolio(), p.portfolio.swap(), p.handlePortfolio)
	p.process(enum.StreamBoard, true, p.board.swap(), p.handleBoard)
	p.process(enum.StreamOrderBook, p.callbacks.HasOrderBook(), p.orderBook.swap(), p.handleOrderBook)
}

// process coalesces one batch and runs handle on it. Any failure is reported
// through OnError and never escapes the pipeline.
func (p *Pipeline) process(stream enum.Stream, wanted bool, records []adapter.RawRecord, handle func([]adapter.RawRecord) error) {
	if !wanted || len(records) == 0 {
		return
	}

	start := time.Now()
	unique, err := dedup(records)
	if err == nil {
		p.metrics.ObserveCoalesced(stream, len(records)-len(unique))
		err = handle(unique)
	}
	p.metrics.ObserveBatch(stream, time.Since(start))

	if err != nil {
		p.metrics.IncError(stream)
		logs.Errorf("process %s batch, err: %+v", stream, err)
		p.callbacks.ReportError(err, false)
	}
}

func (p *Pipeline) handlePortfolio(records []adapter.RawRecord) error {
	if !p.callbacks.HasPersonalPortfolio() {
		return nil
	}

	ts := time.Now()
	portfolio, err := normalize.PersonalPortfolio(records)
	if err != nil {
		return errors.Wrap(err, "normalize personal portfolio")
	}
	tsPortfolio := time.Now()

	orderBook, err := normalize.OrderBooks(records)
	if err != nil {
		return errors.Wrap(err, "normalize personal portfolio order books")
	}
	tsOrderBook := time.Now()

	sent, err := p.callbacks.EmitPersonalPortfolio(portfolio, orderBook)
	if sent {
		p.metrics.IncDispatched(portfolio.Name())
	}
	logs.Debugf("personal portfolio batch (P: %d, OB: %d), portfolio: %s, order book: %s, notify: %s",
		portfolio.Len(), orderBook.Len(), tsPortfolio.Sub(ts), tsOrderBook.Sub(tsPortfolio), time.Since(tsOrderBook))

	return err
}

// handleBoard splits the batch by group tag into repos, options and securities.
func (p *Pipeline) handleBoard(records []adapter.RawRecord) error {
	var repos, options, securities []adapter.RawRecord
	for _, rec := range records {
		switch rec.String(adapter.FieldGroup) {
		case adapter.GroupRepos:
			repos = append(repos, rec)
		case adapter.GroupOptions:
			options = append(options, rec)
		default:
			securities = append(securities, rec)
		}
	}

	if len(repos) != 0 && p.callbacks.HasRepos() {
		ts := time.Now()
		table, err := normalize.Repos(repos)
		if err != nil {
			return errors.Wrap(err, "normalize repos")
		}
		tsProcess := time.Now()
		if err := p.dispatch(table.Name(), func() (bool, error) { return p.callbacks.EmitRepos(table) }); err != nil {
			return err
		}
		logs.Debugf("repos batch (R: %d), process: %s, notify: %s", table.Len(), tsProcess.Sub(ts), time.Since(tsProcess))
	}

	if len(options) != 0 && p.callbacks.HasOptions() {
		ts := time.Now()
		table, err := normalize.Options(options)
		if err != nil {
			return errors.Wrap(err, "normalize options")
		}
		tsProcess := time.Now()
		if err := p.dispatch(table.Name(), func() (bool, error) { return p.callbacks.EmitOptions(table) }); err != nil {
			return err
		}
		logs.Debugf("options batch (O: %d), process: %s, notify: %s", table.Len(), tsProcess.Sub(ts), time.Since(tsProcess))
	}

	if len(securities) != 0 && p.callbacks.HasSecurities() {
		ts := time.Now()
		table, err := normalize.Securities(securities)
		if err != nil {
			return errors.Wrap(err, "normalize securities")
		}
		tsProcess := time.Now()
		if err := p.dispatch(table.Name(), func() (bool, error) { return p.callbacks.EmitSecurities(table) }); err != nil {
			return err
		}
		logs.Debugf("securities batch (S: %d), process: %s, notify: %s", table.Len(), tsProcess.Sub(ts), time.Since(tsProcess))
	}

	return nil
}

func (p *Pipeline) handleOrderBook(records []adapter.RawRecord) error {
	if !p.callbacks.HasOrderBook() {
		return nil
	}

	ts := time.Now()
	table, err := normalize.OrderBooks(records)
	if err != nil {
		return errors.Wrap(err, "normalize order books")
	}
	tsProcess := time.Now()

	if err := p.dispatch(table.Name(), func() (bool, error) { return p.callbacks.EmitOrderBook(table) }); err != nil {
		return err
	}
	logs.Debugf("order book batch (%d), process: %s, notify: %s", len(records), tsProcess.Sub(ts), time.Since(tsProcess))

	return nil
}

func (p *Pipeline) dispatch(table string, emit func() (bool, error)) error {
	sent, err := emit()
	if sent {
		p.metrics.IncDispatched(table)
	}
	return err
}
