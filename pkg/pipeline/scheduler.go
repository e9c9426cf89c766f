package pipeline

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/observability"
)

// DefaultDebounce is the quiet period before a submitted run starts.
const DefaultDebounce = 60 * time.Millisecond

// Ticket tracks one submission to a Scheduler.
type Ticket struct {
	// ID identifies the submission.
	ID string

	done   chan struct{}
	result *Result
	err    error
}

// Done is closed once the ticket has completed or been superseded.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Result returns the outcome after Done is closed. A superseded ticket
// reports an error with code SUPERSEDED.
func (t *Ticket) Result() (*Result, error) {
	<-t.done
	return t.result, t.err
}

// Wait blocks until the ticket completes or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Ticket) finish(res *Result, err error) {
	t.result, t.err = res, err
	close(t.done)
}

// Scheduler runs the pipeline for interactive callers that submit a new
// configuration on every change. Submissions are debounced; a newer
// submission replaces the pending one and cancels the running one, whose
// result is never delivered.
type Scheduler struct {
	runner  *Runner
	delay   time.Duration
	deliver func(*Ticket)

	mu      sync.Mutex
	current *Ticket
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. A non-positive delay selects
// DefaultDebounce. deliver, when non-nil, is called once for every ticket
// that completes without being superseded; it must not call Submit.
func NewScheduler(r *Runner, delay time.Duration, deliver func(*Ticket)) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Scheduler{runner: r, delay: delay, deliver: deliver}
}

// Submit schedules a run of img with opts after the debounce delay and
// supersedes any earlier submission.
func (s *Scheduler) Submit(ctx context.Context, img image.Image, opts Options) *Ticket {
	t := &Ticket{ID: uuid.NewString(), done: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		t.finish(nil, errors.New(errors.ErrCodeSuperseded, "scheduler closed"))
		return t
	}
	s.supersedeLocked(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	s.current = t
	s.cancel = cancel
	s.wg.Add(1)
	s.timer = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.run(runCtx, t, img, opts)
	})
	return t
}

// supersedeLocked stops the pending timer and cancels the running job of the
// current ticket. A ticket whose timer never fired is finished here; a
// running one finishes when its run notices the cancellation.
func (s *Scheduler) supersedeLocked(ctx context.Context) {
	prev := s.current
	if prev == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
		prev.finish(nil, superseded(prev.ID))
		observability.Pipeline().OnSuperseded(ctx, prev.ID)
	}
	s.current, s.timer, s.cancel = nil, nil, nil
}

func (s *Scheduler) run(ctx context.Context, t *Ticket, img image.Image, opts Options) {
	res, err := s.runner.Execute(ctx, img, opts)

	s.mu.Lock()
	stale := s.current != t || ctx.Err() != nil
	if !stale {
		s.current, s.timer = nil, nil
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	s.mu.Unlock()

	if stale {
		s.runner.Logger.Debug("dropped superseded run", "id", t.ID)
		observability.Pipeline().OnSuperseded(ctx, t.ID)
		t.finish(nil, superseded(t.ID))
		return
	}
	t.finish(res, err)
	if s.deliver != nil {
		s.deliver(t)
	}
}

// Close supersedes the pending submission and waits for running jobs.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.supersedeLocked(context.Background())
	s.mu.Unlock()
	s.wg.Wait()
}

func superseded(id string) error {
	return errors.New(errors.ErrCodeSuperseded, "run %s was superseded by a newer submission", id)
}
