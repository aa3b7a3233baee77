package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"go.uber.org/zap"
)

// backlogWarning is the queue length at which a slow source gets logged
const backlogWarning = 64

// sourceWorker serializes the events of one source.
// Its queue is unbounded so a slow source never stalls dispatch.
type sourceWorker struct {
	rec  *Reconciler
	wake chan struct{}
	done chan struct{}

	mu     sync.Mutex
	queue  []domain.MediaStatus
	closed bool
}

func newSourceWorker(rec *Reconciler) *sourceWorker {
	return &sourceWorker{
		rec:  rec,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// push enqueues status and returns the resulting backlog
func (w *sourceWorker) push(status domain.MediaStatus) int {
	w.mu.Lock()
	w.queue = append(w.queue, status)
	n := len(w.queue)
	w.mu.Unlock()

	w.signal()
	return n
}

// close lets the worker exit once the queue is drained
func (w *sourceWorker) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.signal()
}

func (w *sourceWorker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next blocks until a status is queued. It returns false once the worker
// is closed and nothing is left.
func (w *sourceWorker) next() (domain.MediaStatus, bool) {
	for {
		w.mu.Lock()
		if len(w.queue) > 0 {
			status := w.queue[0]
			w.queue[0] = domain.MediaStatus{}
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return status, true
		}
		closed := w.closed
		w.mu.Unlock()

		if closed {
			return domain.MediaStatus{}, false
		}
		<-w.wake
	}
}

func (w *sourceWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		status, ok := w.next()
		if !ok {
			return
		}
		w.rec.OnStatusUpdate(ctx, status)
	}
}

// Registry routes monitor events to one Reconciler per active source.
// Sources run concurrently; events of the same source are handled in order.
type Registry struct {
	logger         *zap.Logger
	monitor        domain.Monitor
	display        domain.Display
	resolver       domain.TitleResolver
	filter         map[string]struct{}
	lookupTimeout  time.Duration
	healthInterval time.Duration

	mu      sync.Mutex
	sources map[string]*sourceWorker
	ignored map[string]struct{}
	cancel  context.CancelFunc
	loop    chan struct{}
	wg      sync.WaitGroup // tracks source workers
}

// NewRegistry creates a registry fed by mon
func NewRegistry(
	logger *zap.Logger,
	cfg domain.Config,
	mon domain.Monitor,
	display domain.Display,
	resolver domain.TitleResolver,
) *Registry {
	filter := make(map[string]struct{})
	for _, name := range cfg.GetSourceFilter() {
		filter[name] = struct{}{}
	}
	return &Registry{
		logger:         logger,
		monitor:        mon,
		display:        display,
		resolver:       resolver,
		filter:         filter,
		lookupTimeout:  cfg.GetLookupTimeout(),
		healthInterval: cfg.GetHealthInterval(),
		sources:        make(map[string]*sourceWorker),
		ignored:        make(map[string]struct{}),
	}
}

// Start launches the dispatch loop and returns immediately
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	// The start context only bounds startup, the loop runs until Stop
	loopCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.loop = make(chan struct{})

	r.logger.Info("Registry starting...")
	go r.run(loopCtx, r.loop)
	return nil
}

// Stop ends the dispatch loop and waits for all source workers
func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, loop := r.cancel, r.loop
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-loop
	}

	r.mu.Lock()
	for source, w := range r.sources {
		w.close()
		delete(r.sources, source)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Registry stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for source workers: %w", ctx.Err())
	}
}

func (r *Registry) run(ctx context.Context, loop chan struct{}) {
	defer close(loop)

	events := r.monitor.Events()

	var health <-chan time.Time
	if r.healthInterval > 0 {
		ticker := time.NewTicker(r.healthInterval)
		defer ticker.Stop()
		health = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Registry loop stopped")
			return

		case ev, ok := <-events:
			if !ok {
				r.logger.Info("Monitor events channel closed")
				return
			}
			r.Dispatch(ctx, ev)

		case <-health:
			r.CheckHealth()
		}
	}
}

// Dispatch routes a single event without waiting on status handling.
// Removal waits for the source's queued events so the teardown comes last.
// It must not race with Remove or Stop; the dispatch loop is the only
// caller once started.
func (r *Registry) Dispatch(ctx context.Context, ev domain.MediaEvent) {
	switch ev.Kind {
	case domain.EventRemoved:
		r.Remove(ev.Source, "source disconnected")
	case domain.EventStatus:
		w := r.worker(ctx, ev.Source)
		if w == nil {
			return
		}
		ev.Status.Source = ev.Source
		if n := w.push(ev.Status); n == backlogWarning {
			r.logger.Warn("Media source is falling behind",
				zap.String("source", ev.Source),
				zap.Int("queued", n))
		}
	}
}

// worker returns the worker of source, registering it on first sight.
// It returns nil for filtered sources.
func (r *Registry) worker(ctx context.Context, source string) *sourceWorker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.sources[source]; ok {
		return w
	}

	if !r.accepts(source) {
		if _, seen := r.ignored[source]; !seen {
			r.ignored[source] = struct{}{}
			r.logger.Info("Ignoring media source due to filter list", zap.String("source", source))
		}
		return nil
	}

	w := newSourceWorker(NewReconciler(r.logger, source, r.display, r.resolver, r.lookupTimeout))
	r.sources[source] = w

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		w.run(ctx)
	}()

	r.logger.Info("Registered media source", zap.String("source", source))
	return w
}

func (r *Registry) accepts(source string) bool {
	if len(r.filter) == 0 {
		return true
	}
	_, ok := r.filter[source]
	return ok
}

// Remove discards the memo of source and releases the display.
// Unknown sources are ignored.
func (r *Registry) Remove(source, reason string) {
	r.mu.Lock()
	w, ok := r.sources[source]
	delete(r.sources, source)
	r.mu.Unlock()

	if !ok {
		return
	}

	// Let queued events drain so nothing redraws after the teardown
	w.close()
	<-w.done

	r.display.Teardown()
	r.logger.Info("Unregistered media source",
		zap.String("source", source),
		zap.String("reason", reason))
}

// CheckHealth tears down every registered source the monitor reports as dead
func (r *Registry) CheckHealth() {
	for _, source := range r.Sources() {
		alive := r.monitor.Alive(source)
		r.logger.Debug("Health check", zap.String("source", source), zap.Bool("alive", alive))
		if !alive {
			r.logger.Warn("Media source failed health check", zap.String("source", source))
			r.Remove(source, "failed health check")
		}
	}
}

// Sources returns the labels of the registered sources
func (r *Registry) Sources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sources))
	for source := range r.sources {
		out = append(out, source)
	}
	return out
}
