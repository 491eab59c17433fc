package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/slated-ai/slated/pkg/cache"
	"github.com/slated-ai/slated/pkg/models"
)

// ErrTimeout marks a backend call that exceeded the broker's bounded wait.
// Callers can retry on it without retrying genuine backend failures.
var ErrTimeout = errors.New("backend call timed out")

// Backend is the generation surface the broker dispatches against.
type Backend interface {
	Generate(ctx context.Context, target, prompt string, options map[string]any) (string, error)
}

// Request is one unit of work for the backend.
type Request struct {
	Target     string
	Prompt     string
	Parameters map[string]any
}

// pendingRequest is a submission waiting for admission.
type pendingRequest struct {
	id          string
	req         Request
	submittedAt time.Time
	handle      *Handle
	ctx         context.Context
}

// Broker serializes access to a slow inference backend. It admits at most
// maxConcurrent calls at a time, queues the rest in arrival order, and
// memoizes responses in a TTL cache.
type Broker struct {
	backend       Backend
	cache         *cache.Cache
	maxConcurrent int
	callTimeout   time.Duration

	// mu guards queue and inFlight; the admit-check-and-increment sequence
	// must be atomic or two submissions could both take the last slot.
	mu       sync.Mutex
	queue    []*pendingRequest
	inFlight int
}

// New creates a Broker. maxConcurrent must be at least 1; callTimeout bounds
// each dispatched backend call.
func New(b Backend, c *cache.Cache, maxConcurrent int, callTimeout time.Duration) *Broker {
	if maxConcurrent < 1 {
		panic(fmt.Sprintf("broker: maxConcurrent must be at least 1, got %d", maxConcurrent))
	}
	return &Broker{
		backend:       b,
		cache:         c,
		maxConcurrent: maxConcurrent,
		callTimeout:   callTimeout,
	}
}

// Submit enqueues a request and returns its completion handle. The request is
// dispatched as soon as a concurrency slot frees up, in arrival order. ctx
// only covers the queue wait: a request whose context is done before
// admission is dropped from the queue and its handle resolved with the
// context error; admitted requests always run to their bounded wait.
func (b *Broker) Submit(ctx context.Context, req Request) *Handle {
	p := &pendingRequest{
		id:          uuid.New().String(),
		req:         req,
		submittedAt: time.Now(),
		handle:      newHandle(),
		ctx:         ctx,
	}

	b.mu.Lock()
	b.queue = append(b.queue, p)
	depth := len(b.queue)
	b.mu.Unlock()

	logrus.Debugf("broker: submitted %s (target %s, queue depth %d)", p.id, req.Target, depth)
	b.advance()
	return p.handle
}

// advance admits queued requests while capacity remains. It runs after every
// submission and after every terminal dispatch so freed capacity is offered
// to the next waiter immediately.
func (b *Broker) advance() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 || b.inFlight >= b.maxConcurrent {
			b.mu.Unlock()
			return
		}
		p := b.queue[0]
		b.queue = b.queue[1:]
		if p.ctx.Err() != nil {
			// Caller gave up while still queued; never admitted, no slot held.
			b.mu.Unlock()
			p.handle.resolve(Result{Err: fmt.Errorf("abandoned before admission: %w", p.ctx.Err())})
			continue
		}
		b.inFlight++
		b.mu.Unlock()
		go b.dispatch(p)
	}
}

// release returns a concurrency slot and re-runs the scheduling loop.
func (b *Broker) release() {
	b.mu.Lock()
	b.inFlight--
	if b.inFlight < 0 {
		b.mu.Unlock()
		panic("broker: concurrency slot released twice")
	}
	b.mu.Unlock()
	b.advance()
}

// dispatch executes one admitted request: cache lookup, then a backend call
// under the bounded wait. Every path resolves the handle exactly once and
// releases the slot exactly once.
func (b *Broker) dispatch(p *pendingRequest) {
	defer b.release()

	queueWait := time.Since(p.submittedAt)
	key := cache.Fingerprint(p.req.Target, p.req.Parameters, p.req.Prompt)

	if resp, ok := b.cache.Lookup(key); ok {
		logrus.Debugf("broker: cache hit for %s after %s queued", p.id, queueWait.Round(time.Millisecond))
		p.handle.resolve(Result{Response: resp, Cached: true})
		return
	}

	callCtx, cancel := context.WithTimeout(context.Background(), b.callTimeout)
	defer cancel()

	start := time.Now()
	resp, err := b.backend.Generate(callCtx, p.req.Target, p.req.Prompt, p.req.Parameters)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s (target %s)", ErrTimeout, b.callTimeout, p.req.Target)
		}
		logrus.Warnf("broker: request %s failed after %s: %v", p.id, time.Since(start).Round(time.Millisecond), err)
		p.handle.resolve(Result{Err: err})
		return
	}

	b.cache.Store(key, resp)
	logrus.Infof("broker: request %s done (target %s, queued %s, call %s)",
		p.id, p.req.Target, queueWait.Round(time.Millisecond), time.Since(start).Round(time.Millisecond))
	p.handle.resolve(Result{Response: resp})
}

// Stats returns a snapshot of broker load. It never blocks on backend work.
func (b *Broker) Stats() models.QueueStats {
	b.mu.Lock()
	queued, inFlight := len(b.queue), b.inFlight
	b.mu.Unlock()

	return models.QueueStats{
		QueueLength:   queued,
		InFlightCount: inFlight,
		MaxConcurrent: b.maxConcurrent,
		CacheSize:     b.cache.Len(),
	}
}
