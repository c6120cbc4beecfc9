package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakePhysical is an in-memory Physical double, the same role net.Pipe
// fills in dbbouncer's pool tests — cheap enough to create by the hundred,
// observable enough to assert on (close count, ping count).
type fakePhysical struct {
	url string

	mu       sync.Mutex
	closed   bool
	pingErr  error
	pingFunc func() error

	closeCount atomic.Int64
	pingCount  atomic.Int64
}

func newFakePhysical(url string) *fakePhysical {
	return &fakePhysical{url: url}
}

func (f *fakePhysical) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.closeCount.Add(1)
	return nil
}

func (f *fakePhysical) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakePhysical) Ping(ctx context.Context) error {
	f.pingCount.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingFunc != nil {
		return f.pingFunc()
	}
	return f.pingErr
}

func (f *fakePhysical) URL() string { return f.url }

func fakeDialer() (Dialer[*fakePhysical], *atomic.Int64) {
	var n atomic.Int64
	return func(ctx context.Context) (*fakePhysical, error) {
		i := n.Add(1)
		return newFakePhysical("fake://conn/" + itoa(i)), nil
	}, &n
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func testConfig() Config {
	return Config{
		InitialSize:       2,
		MaxSize:           4,
		MinIdle:           1,
		MaxWait:           500 * time.Millisecond,
		ValidationTimeout: 50 * time.Millisecond,
		IdleTimeout:       time.Hour,
		MaxLifetime:       time.Hour,
	}
}

func TestNewFillsToInitialSize(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New[*fakePhysical](context.Background(), "t", testConfig(), dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	stats := p.Stats()
	if stats.Total != 2 || stats.Idle != 2 || stats.Active != 0 {
		t.Errorf("expected total=2 idle=2 active=0, got %+v", stats)
	}
}

func TestBorrowAndReturn(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New[*fakePhysical](context.Background(), "t", testConfig(), dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if stats := p.Stats(); stats.Active != 1 || stats.Idle != 1 {
		t.Errorf("expected active=1 idle=1, got %+v", stats)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if stats := p.Stats(); stats.Active != 0 || stats.Idle != 2 {
		t.Errorf("expected active=0 idle=2 after return, got %+v", stats)
	}

	// Closing twice is a no-op, not an error.
	if err := h.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got: %v", err)
	}
}

func TestBorrowGrowsPastInitialSize(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	handles := make([]*Handle[*fakePhysical], 0, cfg.MaxSize)
	for i := 0; i < cfg.MaxSize; i++ {
		h, err := p.Borrow(context.Background())
		if err != nil {
			t.Fatalf("Borrow #%d: %v", i, err)
		}
		handles = append(handles, h)
	}

	if stats := p.Stats(); stats.Total != cfg.MaxSize || stats.Active != cfg.MaxSize {
		t.Errorf("expected total=active=max_size(%d), got %+v", cfg.MaxSize, stats)
	}

	for _, h := range handles {
		h.Close()
	}
}

func TestBorrowTimesOutWhenExhausted(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	cfg.MaxSize = 1
	cfg.InitialSize = 1
	cfg.MinIdle = 0
	cfg.MaxWait = 50 * time.Millisecond

	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	_, err = p.Borrow(context.Background())
	if err == nil {
		t.Fatal("expected timeout error when pool is exhausted")
	}

	h.Close()
}

func TestBorrowFailsAfterClose(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New[*fakePhysical](context.Background(), "t", testConfig(), dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Close()

	_, err = p.Borrow(context.Background())
	if err == nil {
		t.Fatal("expected error borrowing from a closed pool")
	}
}

func TestBorrowRespectsContextCancellation(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	cfg.MaxSize = 1
	cfg.InitialSize = 1
	cfg.MaxWait = 5 * time.Second

	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Borrow(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}

	h.Close()
}

func TestTestOnBorrowRetiresInvalidConnection(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	cfg.TestOnBorrow = true

	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	// Poison every idle entry so the first popped one fails validation.
	p.muIdle.Lock()
	for _, e := range p.idle {
		e.physical.pingErr = errors.New("connection is dead")
	}
	p.muIdle.Unlock()

	h, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatalf("Borrow should recover by replacing the invalid entry: %v", err)
	}
	if h.Physical.pingErr != nil {
		t.Error("expected a freshly dialed, healthy replacement connection")
	}
	h.Close()
}

func TestTestOnReturnReplacesInvalidConnection(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	cfg.TestOnReturn = true

	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	h.Physical.pingErr = errors.New("went bad while checked out")

	h.Close()

	stats := p.Stats()
	if stats.Total != cfg.InitialSize {
		t.Errorf("expected pool size to stay at initial_size(%d) after replacement, got total=%d", cfg.InitialSize, stats.Total)
	}
	if !h.Physical.closed {
		// The original handle's physical should have been retired, not requeued.
		t.Error("expected invalid physical connection to be closed on failed return")
	}
}

func TestDoubleCloseOnHandleIsIdempotent(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New[*fakePhysical](context.Background(), "t", testConfig(), dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}

func TestDoubleClosePool(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New[*fakePhysical](context.Background(), "t", testConfig(), dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}

func TestCloseClosesIdlePhysicalConnections(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p.muIdle.Lock()
	entries := append([]*entry[*fakePhysical]{}, p.idle...)
	p.muIdle.Unlock()

	p.Close()

	for _, e := range entries {
		if !e.physical.IsClosed() {
			t.Error("expected every idle physical connection to be closed on pool Close")
		}
	}
}

func TestConcurrentBorrowReturn(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	cfg.InitialSize = 0
	cfg.MinIdle = 0
	cfg.MaxSize = 4
	cfg.MaxWait = 2 * time.Second

	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	var wg sync.WaitGroup
	const goroutines = 20
	const iterations = 10

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				h, err := p.Borrow(context.Background())
				if err != nil {
					continue
				}
				time.Sleep(time.Millisecond)
				h.Close()
			}
		}()
	}
	wg.Wait()

	if stats := p.Stats(); stats.Active != 0 {
		t.Errorf("expected active=0 once all goroutines finish, got %d", stats.Active)
	}
}

func TestMaintenanceKeepsMinIdleWhenPruning(t *testing.T) {
	dial, _ := fakeDialer()
	cfg := testConfig()
	cfg.InitialSize = 1
	cfg.MinIdle = 1
	cfg.IdleTimeout = 1 * time.Millisecond
	cfg.MaxLifetime = time.Hour

	p, err := New[*fakePhysical](context.Background(), "t", cfg, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	time.Sleep(5 * time.Millisecond)
	p.notifyMaintenance()
	// Give the maintenance goroutine a moment to run its tick.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().Total >= cfg.MinIdle {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if stats := p.Stats(); stats.Total < cfg.MinIdle {
		t.Errorf("expected maintenance to keep total >= min_idle(%d), got %d", cfg.MinIdle, stats.Total)
	}
}
