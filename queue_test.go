package trafficlight_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fujiwara/trafficlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageQueueFIFO(t *testing.T) {
	q := trafficlight.NewMessageQueue[int]()
	for i := 1; i <= 100; i++ {
		q.Send(i)
	}
	assert.Equal(t, 100, q.Len())
	for i := 1; i <= 100; i++ {
		assert.Equal(t, i, q.Receive())
	}
	assert.Equal(t, 0, q.Len())
}

func TestMessageQueueReceiveBeforeSend(t *testing.T) {
	q := trafficlight.NewMessageQueue[string]()
	waiting := make(chan struct{})
	got := make(chan string)
	go func() {
		close(waiting)
		got <- q.Receive()
	}()
	<-waiting
	time.Sleep(10 * time.Millisecond)
	q.Send("x")

	select {
	case v := <-got:
		assert.Equal(t, "x", v)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake up")
	}
}

func TestMessageQueueSingleDelivery(t *testing.T) {
	q := trafficlight.NewMessageQueue[int]()
	got := make(chan int, 4)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got <- q.Receive()
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Send(1)
	q.Send(2)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("receivers did not finish")
	}
	close(got)

	var values []int
	for v := range got {
		values = append(values, v)
	}
	sort.Ints(values)
	assert.Equal(t, []int{1, 2}, values)
	assert.Equal(t, 0, q.Len())
}

func TestMessageQueueManyReceivers(t *testing.T) {
	q := trafficlight.NewMessageQueue[int]()
	const total = 1000
	const workers = 8
	got := make(chan int, total)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				v, err := q.ReceiveContext(ctx)
				cancel()
				if err != nil {
					return
				}
				got <- v
			}
		}()
	}
	for i := 0; i < total; i++ {
		q.Send(i)
	}
	wg.Wait()
	close(got)

	seen := make(map[int]bool, total)
	for v := range got {
		require.False(t, seen[v], "value %d delivered twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, total)
}

func TestMessageQueueReceiveContextCancel(t *testing.T) {
	q := trafficlight.NewMessageQueue[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.ReceiveContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMessageQueueReceiveContextPrefersValue(t *testing.T) {
	q := trafficlight.NewMessageQueue[int]()
	q.Send(7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := q.ReceiveContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMessageQueueCancelledWaiterDoesNotLoseValue(t *testing.T) {
	q := trafficlight.NewMessageQueue[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error)
	go func() {
		_, err := q.ReceiveContext(ctx)
		cancelled <- err
	}()
	got := make(chan int)
	go func() {
		got <- q.Receive()
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-cancelled, context.Canceled)

	q.Send(42)
	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("value was lost")
	}
}
