// Package fanout distributes encoded MP3 frames from a single producer to
// any number of listeners.
package fanout

import (
	"errors"
	"iter"
	"log/slog"
	"sync"
)

// publishQueueLen bounds how many frames may sit between the producer and
// the fanout worker before Publish starts failing.
const publishQueueLen = 64

// Broker fans frames out to subscribers over buffered per-subscriber
// queues. A subscriber that stops draining loses frames instead of
// stalling the producer or the other listeners.
type Broker struct {
	lock        sync.Mutex
	nextID      int
	subscribers map[int]*subscriber
	closed      bool

	queue chan []byte
	quit  chan struct{}
	wg    sync.WaitGroup
}

type subscriber struct {
	ch      chan []byte
	dropped uint64
}

func NewBroker() *Broker {
	b := &Broker{
		subscribers: map[int]*subscriber{},
		queue:       make(chan []byte, publishQueueLen),
		quit:        make(chan struct{}),
	}
	b.wg.Go(b.process)
	return b
}

// Publish hands one frame to the fanout worker. It never blocks; when the
// worker cannot keep up the frame is rejected.
func (b *Broker) Publish(frame []byte) error {
	b.lock.Lock()
	closed := b.closed
	b.lock.Unlock()
	if closed {
		return errors.New("broker closed")
	}
	select {
	case b.queue <- frame:
		return nil
	default:
		return errors.New("queue overflow")
	}
}

// Subscribe registers a listener with its own queue of queueSize frames
// and returns an iterator over the frames it receives. Breaking out of the
// iteration unsubscribes; the iteration also ends when the broker closes.
func (b *Broker) Subscribe(queueSize int) (iter.Seq[[]byte], error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return nil, errors.New("broker closed")
	}
	id := b.nextID
	b.nextID++
	sub := &subscriber{ch: make(chan []byte, queueSize)}
	b.subscribers[id] = sub
	return func(yield func([]byte) bool) {
		defer b.unsubscribe(id)
		for frame := range sub.ch {
			if !yield(frame) {
				return
			}
		}
	}, nil
}

// Listeners returns the number of active subscribers.
func (b *Broker) Listeners() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subscribers)
}

func (b *Broker) unsubscribe(id int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	sub, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	if sub.dropped > 0 {
		slog.Warn("slow mp3 listener lost frames", "id", id, "dropped", sub.dropped)
	}
}

func (b *Broker) process() {
	for {
		select {
		case frame := <-b.queue:
			b.fanout(frame)
		case <-b.quit:
			return
		}
	}
}

func (b *Broker) fanout(frame []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- frame:
		default:
			sub.dropped++
		}
	}
}

// Close stops the fanout worker and ends every subscriber's iteration.
// Close is idempotent.
func (b *Broker) Close() error {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return nil
	}
	b.closed = true
	b.lock.Unlock()

	close(b.quit)
	b.wg.Wait()

	b.lock.Lock()
	defer b.lock.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	return nil
}
