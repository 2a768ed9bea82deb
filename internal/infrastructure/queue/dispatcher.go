package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher routes outbound notifications to a fixed set of workers using
// consistent hashing on the recipient address, so mail to the same
// recipient is delivered in enqueue order. Delivery is best effort:
// failures are logged, never retried or surfaced to the enqueueing
// request.
type Dispatcher struct {
	workers []chan ports.Notification
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Notification, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Dispatch sends a notification to the worker responsible for its
// recipient. Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Dispatch(n ports.Notification) {
	d.workers[d.shardIndex(n.To)] <- n
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := d.mailer.Send(ctx, n.To, n.Subject, n.HTMLBody); err != nil {
				d.log.Error().Err(err).
					Str("recipient", n.To).
					Int("worker_id", id).
					Msg("notification delivery failed")
			}
		}
	}
}
