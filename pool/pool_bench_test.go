package pool

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newBenchPool creates a Pool pre-filled with n fake physical connections
// and a generous max_wait so waits don't skew results.
func newBenchPool(b *testing.B, n int) *Pool[*fakePhysical] {
	b.Helper()
	dial, _ := fakeDialer()
	cfg := Config{
		InitialSize:       n,
		MaxSize:           n,
		MinIdle:           0,
		MaxWait:           30 * time.Second,
		ValidationTimeout: time.Second,
		IdleTimeout:       time.Hour,
		MaxLifetime:       time.Hour,
	}
	p, err := New[*fakePhysical](context.Background(), "bench", cfg, dial)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	return p
}

// BenchmarkBorrowReturn measures the throughput of a single goroutine
// repeatedly borrowing and immediately returning a connection. Pool size
// = 1 so no contention; measures pure borrow/return overhead.
func BenchmarkBorrowReturn(b *testing.B) {
	p := newBenchPool(b, 1)
	defer p.Close()

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, err := p.Borrow(ctx)
		if err != nil {
			b.Fatalf("Borrow failed: %v", err)
		}
		h.Close()
	}
}

// BenchmarkBorrowReturnParallel measures throughput under concurrent
// access with a pool of 12 connections so goroutines rarely wait.
func BenchmarkBorrowReturnParallel(b *testing.B) {
	p := newBenchPool(b, 12)
	defer p.Close()

	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h, err := p.Borrow(ctx)
			if err != nil {
				continue
			}
			h.Close()
		}
	})
}

// BenchmarkBorrowContended measures latency when goroutines compete for
// fewer connections than goroutines.
func BenchmarkBorrowContended(b *testing.B) {
	const poolSize = 4
	p := newBenchPool(b, poolSize)
	defer p.Close()

	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h, err := p.Borrow(ctx)
			if err != nil {
				continue
			}
			time.Sleep(time.Microsecond)
			h.Close()
		}
	})
}

// BenchmarkPoolStats measures the overhead of reading pool stats (called
// after every borrow, return and maintenance tick when Config.Metrics is set).
func BenchmarkPoolStats(b *testing.B) {
	p := newBenchPool(b, 4)
	defer p.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Stats()
	}
}

// BenchmarkConcurrentBorrowReturnThroughput measures aggregate ops/sec with
// a realistic worker-pool pattern: N workers each borrow -> work -> return.
func BenchmarkConcurrentBorrowReturnThroughput(b *testing.B) {
	const poolSize = 8
	p := newBenchPool(b, poolSize)
	defer p.Close()

	ctx := context.Background()
	const workers = 32
	work := make(chan struct{}, b.N)
	for i := 0; i < b.N; i++ {
		work <- struct{}{}
	}
	close(work)

	b.ResetTimer()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range work {
				h, err := p.Borrow(ctx)
				if err != nil {
					continue
				}
				h.Close()
			}
		}()
	}
	wg.Wait()
}
