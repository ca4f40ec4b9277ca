package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueue_BasicOperations(t *testing.T) {
	q := NewQueue(WithCapacity(2))

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Offer([]byte{1, 2}) {
		t.Error("expected offer to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	chunk := <-q.Chunks()
	if len(chunk) != 2 || chunk[0] != 1 {
		t.Errorf("unexpected chunk %v", chunk)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(WithCapacity(2))

	if !q.Offer([]byte{1}) || !q.Offer([]byte{2}) {
		t.Fatal("expected offers to succeed")
	}
	if q.Offer([]byte{3}) {
		t.Error("expected offer to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestQueue_PutWaitsForSpace(t *testing.T) {
	q := NewQueue(WithCapacity(1))
	ctx := context.Background()

	if err := q.Put(ctx, []byte{1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Put(ctx, []byte{2}) }()

	select {
	case <-done:
		t.Fatal("put returned while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	<-q.Chunks()
	if err := <-done; err != nil {
		t.Errorf("put after drain: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Put(cctx, []byte{3}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(WithCapacity(4))
	q.Offer([]byte{1})

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Offer([]byte{2}) {
		t.Error("expected offer after close to fail")
	}
	if err := q.Put(context.Background(), []byte{2}); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}

	var got int
	for range q.Chunks() {
		got++
	}
	if got != 1 {
		t.Errorf("expected buffered chunk to survive close, got %d", got)
	}
}

func TestQueue_ConcurrentOffers(t *testing.T) {
	q := NewQueue(WithCapacity(1000))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Offer([]byte{byte(j)})
			}
		}()
	}
	wg.Wait()
	if l := q.Len(); l != 1000 {
		t.Errorf("expected 1000 chunks, got %d", l)
	}
}
