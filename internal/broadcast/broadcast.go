// Package broadcast delivers published values to every current subscriber in
// publication order. Each subscriber is drained by its own goroutine from an
// unbounded queue, so Publish never blocks on a slow subscriber.
package broadcast

import "sync"

type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[uint64]*subscriber[T])}
}

type subscriber[T any] struct {
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
	fn    func(T)
}

// Subscribe registers fn. Values in initial are queued before anything published
// afterwards. The returned func unsubscribes; it is safe to call more than once
// and from inside fn.
func (b *Broadcaster[T]) Subscribe(fn func(T), initial ...T) func() {
	s := &subscriber[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		fn:   fn,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	for _, v := range initial {
		s.push(v)
	}
	b.wg.Add(1)
	go s.run(&b.wg)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		s.stop()
	}
}

// Publish queues v for every current subscriber. It is a no-op after Close.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.push(v)
	}
}

// Len returns the number of current subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close stops all subscribers and waits for their goroutines to exit.
// It must not be called from inside a subscriber callback.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		s.stop()
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber[T]) next() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	v := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return v, true
}

func (s *subscriber[T]) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-s.wake:
		case <-s.done:
			return
		}
		for {
			select {
			case <-s.done:
				return
			default:
			}
			v, ok := s.next()
			if !ok {
				break
			}
			s.fn(v)
		}
	}
}
