package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freelancehq/freelance-manager/internal/api/metrics"
	"github.com/freelancehq/freelance-manager/internal/core/bus"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher moves bus publishes off the request goroutine. Events are
// routed to a fixed set of workers by hashing the event name, so publishes
// of one event are delivered in the order they were enqueued.
type Dispatcher struct {
	workers   []chan string
	publisher bus.Publisher
	log       zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher bus.Publisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan string, numWorkers),
		publisher: publisher,
		log:       log,
		done:      make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain what is already queued
// and stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		d.stopOnce.Do(func() { close(d.done) })
	}()
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands event to the worker responsible for it. It blocks while that
// worker's buffer is full and returns immediately once the dispatcher stops.
func (d *Dispatcher) Enqueue(event string) {
	idx := d.shardIndex(event)
	select {
	case d.workers[idx] <- event:
		metrics.BusQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-d.done:
		d.log.Warn().Str("event", event).Msg("dispatcher stopped, event dropped")
	}
}

// shardIndex maps an event name deterministically to a worker index.
func (d *Dispatcher) shardIndex(event string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(event))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-ch:
					d.publish(id, event)
				default:
					metrics.BusQueueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		case event := <-ch:
			metrics.BusQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.publish(id, event)
		}
	}
}

func (d *Dispatcher) publish(id int, event string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("event", event).
				Int("worker_id", id).
				Msg("event handler panicked")
		}
	}()

	start := time.Now()
	d.publisher.Publish(event)
	metrics.BusDispatchDuration.WithLabelValues(bus.Unowned(event)).Observe(time.Since(start).Seconds())
}
