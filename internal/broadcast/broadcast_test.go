package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	m    sync.Mutex
	seen []int
}

func (c *collector) add(v int) {
	c.m.Lock()
	defer c.m.Unlock()
	c.seen = append(c.seen, v)
}

func (c *collector) values() []int {
	c.m.Lock()
	defer c.m.Unlock()
	out := make([]int, len(c.seen))
	copy(out, c.seen)
	return out
}

func TestBroadcaster_DeliversInOrder(t *testing.T) {
	b := New[int]()
	t.Cleanup(b.Close)

	c := &collector{}
	b.Subscribe(c.add)

	for i := 0; i < 100; i++ {
		b.Publish(i)
	}

	require.Eventually(t, func() bool {
		return len(c.values()) == 100
	}, time.Second, 10*time.Millisecond)

	for i, v := range c.values() {
		assert.Equal(t, i, v)
	}
}

func TestBroadcaster_InitialValueFirst(t *testing.T) {
	b := New[int]()
	t.Cleanup(b.Close)

	c := &collector{}
	b.Subscribe(c.add, -1)
	b.Publish(1)

	require.Eventually(t, func() bool {
		return len(c.values()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{-1, 1}, c.values())
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := New[int]()
	t.Cleanup(b.Close)

	c := &collector{}
	unsubscribe := b.Subscribe(c.add)
	b.Publish(1)
	require.Eventually(t, func() bool {
		return len(c.values()) == 1
	}, time.Second, 10*time.Millisecond)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, b.Len())

	b.Publish(2)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []int{1}, c.values())
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := New[int]()

	release := make(chan struct{})
	b.Subscribe(func(int) { <-release })

	fast := &collector{}
	b.Subscribe(fast.add)

	published := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			b.Publish(i)
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	require.Eventually(t, func() bool {
		return len(fast.values()) == 50
	}, time.Second, 10*time.Millisecond)

	close(release)
	b.Close()
}

func TestBroadcaster_PublishAfterCloseIsNoop(t *testing.T) {
	b := New[int]()
	c := &collector{}
	b.Subscribe(c.add)
	b.Close()

	b.Publish(1)
	unsubscribe := b.Subscribe(c.add)
	unsubscribe()

	assert.Empty(t, c.values())
	assert.Equal(t, 0, b.Len())
}
