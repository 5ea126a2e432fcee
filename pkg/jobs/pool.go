package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Func processes one task. A non-nil error triggers a retry until the
// pool's retry budget is spent.
type Func[T any] func(context.Context, T) error

// Options tunes pool behaviour. Zero values fall back to safe defaults.
type Options struct {
	Workers int
	Buffer  int
	Retries int
	Backoff time.Duration
	Logger  *zap.Logger
}

// Pool runs tasks of one type on a fixed set of workers. Tasks are kept in
// memory only; anything queued when the process dies is lost, which is
// acceptable for rebuildable artifacts like report files.
type Pool[T any] struct {
	name    string
	fn      Func[T]
	retries int
	backoff time.Duration
	logger  *zap.Logger

	tasks   chan T
	workers int

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPool builds a stopped pool. Call Start before Submit.
func NewPool[T any](name string, fn Func[T], opts Options) *Pool[T] {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 4
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pool[T]{
		name:    name,
		fn:      fn,
		retries: opts.Retries,
		backoff: opts.Backoff,
		logger:  opts.Logger.With(zap.String("pool", name)),
		tasks:   make(chan T, opts.Buffer),
		workers: opts.Workers,
	}
}

// Start launches the workers. Subsequent calls are no-ops.
func (p *Pool[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	p.running = true
	p.logger.Info("worker pool started", zap.Int("workers", p.workers))
}

// Stop cancels in-flight tasks and waits for the workers to exit.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Submit hands a task to the pool, blocking while the buffer is full.
func (p *Pool[T]) Submit(task T) error {
	p.mu.Lock()
	running := p.running
	ctx := p.ctx
	p.mu.Unlock()
	if !running {
		return fmt.Errorf("pool %s is not running", p.name)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("pool %s shutting down: %w", p.name, ctx.Err())
	case p.tasks <- task:
		return nil
	}
}

func (p *Pool[T]) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.process(task)
		}
	}
}

// process retries in place with a fixed backoff rather than requeueing, so
// a failing task never jumps ahead of tasks submitted after it.
func (p *Pool[T]) process(task T) {
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-p.ctx.Done():
				return
			case <-time.After(p.backoff):
			}
		}
		if err = p.fn(p.ctx, task); err == nil {
			return
		}
		p.logger.Warn("task failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	p.logger.Error("task dropped after retries",
		zap.Int("attempts", p.retries+1),
		zap.Error(err))
}
