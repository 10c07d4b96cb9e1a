package ecto

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

func testPool() *pool {
	return newPool(clockz.RealClock, metricz.New(), tracez.New(), hookz.New[SchedulerEvent](), func(context.Context, func()) {})
}

func TestSerializerRunsTasksInOrderSingleFlight(t *testing.T) {
	p := testPool()
	s := newSerializer(p)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		i := i
		s.post(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	// Drive the pool's queue manually since this test exercises the
	// serializer without a running Scheduler.
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			break
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		task()
	}

	wg.Wait()
	for i := range order {
		if order[i] != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestStrandRegistryLazyAllocAndReuse(t *testing.T) {
	p := testPool()
	r := newStrandRegistry(p)
	ctx := context.Background()

	if r.len() != 0 {
		t.Fatalf("expected empty registry, got len %d", r.len())
	}

	s1 := r.get(ctx, "strand-a")
	if r.len() != 1 {
		t.Fatalf("expected one allocated strand, got %d", r.len())
	}
	s2 := r.get(ctx, "strand-a")
	if s1 != s2 {
		t.Fatalf("expected repeated get for the same id to return the same serializer")
	}

	r.get(ctx, "strand-b")
	if r.len() != 2 {
		t.Fatalf("expected two allocated strands, got %d", r.len())
	}
}

func TestSerializerNeverRunsTwoTasksConcurrently(t *testing.T) {
	p := testPool()
	s := newSerializer(p)

	var running int32
	var sawOverlap bool
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		s.post(func() {
			defer wg.Done()
			mu.Lock()
			if running != 0 {
				sawOverlap = true
			}
			running++
			mu.Unlock()

			time.Sleep(time.Microsecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}

	// Run every worker concurrently to maximize the chance of catching a
	// serialization bug, mirroring how the pool's real workers would race
	// to drain the queue.
	var workers sync.WaitGroup
	for w := 0; w < 8; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				p.mu.Lock()
				if len(p.queue) == 0 {
					p.mu.Unlock()
					return
				}
				task := p.queue[0]
				p.queue = p.queue[1:]
				p.mu.Unlock()
				task()
			}
		}()
	}
	workers.Wait()
	wg.Wait()

	if sawOverlap {
		t.Fatalf("expected the serializer to prevent any concurrent execution")
	}
}
