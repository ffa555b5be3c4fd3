package msgbus

import (
	"sync"

	"go.uber.org/zap"
)

// defaultQueueDepth bounds every queue unless overridden; matches the
// original's fixed-size boost interprocess queues.
const defaultQueueDepth = 256

// elevatedQueueDepth is used for the PHY->MAC queue, which the spec
// calls out as needing a priority-ish treatment; in a portable Go core
// without OS thread priority control, a deeper buffer and a dedicated
// goroutine are the best-effort equivalent.
const elevatedQueueDepth = 1024

// Queue is one named, bounded, typed channel plus the bookkeeping needed
// to shut it down cleanly.
type Queue struct {
	Name string
	ch   chan Message
}

func newQueue(name string, depth int) *Queue {
	return &Queue{Name: name, ch: make(chan Message, depth)}
}

// Send enqueues a message, blocking if the queue is full (backpressure
// is the intended behavior: a slow consumer should stall its producer
// rather than silently drop work).
func (q *Queue) Send(m Message) {
	q.ch <- m
}

// Chan exposes the underlying channel for tests and for callers that
// want to select across multiple queues directly instead of Attach-ing
// a dedicated goroutine.
func (q *Queue) Chan() <-chan Message { return q.ch }

// TrySend enqueues without blocking; used by the real-time Radio/PHY
// path, which must never stall on a full queue.
func (q *Queue) TrySend(m Message) bool {
	select {
	case q.ch <- m:
		return true
	default:
		return false
	}
}

// Bus owns the named queues between adjacent layers and the receive
// goroutines that drain them.
type Bus struct {
	mu      sync.Mutex
	queues  map[string]*Queue
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// New builds an empty Bus.
func New(logger *zap.Logger) *Bus {
	return &Bus{queues: make(map[string]*Queue), logger: logger}
}

// CreateQueue registers a new named queue. elevated selects the deeper,
// dedicated-goroutine-friendly buffer used for PHY->MAC traffic. If a
// queue of that name already exists it is returned unchanged, so both
// ends of a link share one queue and the first creator's depth applies.
func (b *Bus) CreateQueue(name string, elevated bool) *Queue {
	depth := defaultQueueDepth
	if elevated {
		depth = elevatedQueueDepth
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[name]; ok {
		return q
	}
	q := newQueue(name, depth)
	b.queues[name] = q
	return q
}

// Queue returns a previously created queue by name, or nil.
func (b *Bus) Queue(name string) *Queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queues[name]
}

// Attach starts exactly one receive goroutine for q that calls handle
// for every message until a Kill message arrives, at which point the
// goroutine exits. The queue stays registered until Shutdown.
func (b *Bus) Attach(q *Queue, handle func(Message)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for m := range q.ch {
			if m.Kind == KindKill {
				return
			}
			handle(m)
		}
	}()
}

// Shutdown posts Kill to every registered queue and waits for every
// receive goroutine to exit.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	queues := make([]*Queue, 0, len(b.queues))
	for _, q := range b.queues {
		queues = append(queues, q)
	}
	b.mu.Unlock()

	for _, q := range queues {
		q.Send(Message{Kind: KindKill})
	}
	b.wg.Wait()

	b.mu.Lock()
	b.queues = make(map[string]*Queue)
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Info("msgbus shut down", zap.Int("queues_closed", len(queues)))
	}
}

// Route implements the two-hop routing rule shared by every layer
// router: if the message is addressed to here (or to Any), call handle;
// otherwise forward the message unchanged to other.
func Route(m Message, here Layer, handle func(Message), other *Queue) {
	if m.Destination == here || m.Destination == Any {
		handle(m)
		return
	}
	other.Send(m)
}
