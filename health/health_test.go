package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dbcx/dbcx/metrics"
)

type fakePool struct {
	fail atomic.Bool
}

func (f *fakePool) Ping(ctx context.Context) error {
	if f.fail.Load() {
		return errors.New("probe failed")
	}
	return nil
}

func TestCheckerMarksHealthyAfterSuccessfulProbe(t *testing.T) {
	m := metrics.New()
	c := NewChecker(m, Config{FailureThreshold: 2})

	p := &fakePool{}
	c.Register("cache-a", "redis", p)

	c.checkAll()

	st, ok := c.GetStatus("cache-a")
	if !ok {
		t.Fatal("expected registered pool to have a status")
	}
	if st.Status != StatusHealthy {
		t.Fatalf("status = %v, want healthy", st.Status)
	}
	if !c.IsHealthy("cache-a") {
		t.Fatal("expected IsHealthy true")
	}
}

func TestCheckerMarksUnhealthyAfterThreshold(t *testing.T) {
	m := metrics.New()
	c := NewChecker(m, Config{FailureThreshold: 2})

	p := &fakePool{}
	p.fail.Store(true)
	c.Register("orders", "postgresql", p)

	c.checkAll()
	if st, _ := c.GetStatus("orders"); st.Status == StatusUnhealthy {
		t.Fatal("expected a single failure to stay below threshold")
	}

	c.checkAll()
	st, _ := c.GetStatus("orders")
	if st.Status != StatusUnhealthy {
		t.Fatalf("status after 2 failures = %v, want unhealthy", st.Status)
	}
	if st.ConsecutiveFailures != 2 {
		t.Fatalf("consecutive failures = %d, want 2", st.ConsecutiveFailures)
	}
	if st.LastError == "" {
		t.Fatal("expected LastError to be set")
	}
}

func TestCheckerRecoversAfterSuccess(t *testing.T) {
	m := metrics.New()
	c := NewChecker(m, Config{FailureThreshold: 1})

	p := &fakePool{}
	p.fail.Store(true)
	c.Register("events", "mongodb", p)
	c.checkAll()

	if st, _ := c.GetStatus("events"); st.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy after first failing probe, got %v", st.Status)
	}

	p.fail.Store(false)
	c.checkAll()

	st, _ := c.GetStatus("events")
	if st.Status != StatusHealthy {
		t.Fatalf("status after recovery = %v, want healthy", st.Status)
	}
	if st.ConsecutiveFailures != 0 {
		t.Fatalf("consecutive failures after recovery = %d, want 0", st.ConsecutiveFailures)
	}
}

func TestCheckerOverallHealthy(t *testing.T) {
	m := metrics.New()
	c := NewChecker(m, Config{FailureThreshold: 1})

	good := &fakePool{}
	bad := &fakePool{}
	bad.fail.Store(true)

	c.Register("good", "redis", good)
	c.Register("bad", "mysql", bad)
	c.checkAll()

	if c.OverallHealthy() {
		t.Fatal("expected OverallHealthy to be false with one failing pool")
	}

	c.Unregister("bad")
	if !c.OverallHealthy() {
		t.Fatal("expected OverallHealthy to be true after unregistering the failing pool")
	}
}

func TestCheckerUnknownBeforeFirstProbeDoesNotCountAsUnhealthy(t *testing.T) {
	c := NewChecker(nil, Config{})
	c.Register("fresh", "redis", &fakePool{})

	if !c.OverallHealthy() {
		t.Fatal("a never-probed pool should not make OverallHealthy false")
	}
	st, ok := c.GetStatus("fresh")
	if !ok || st.Status != StatusUnknown {
		t.Fatalf("expected status unknown before first probe, got %+v ok=%v", st, ok)
	}
}

func TestCheckerStartStopRunsProbesOnTicker(t *testing.T) {
	m := metrics.New()
	c := NewChecker(m, Config{Interval: 10 * time.Millisecond, FailureThreshold: 1})
	p := &fakePool{}
	c.Register("loop", "redis", p)

	c.Start()
	defer c.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := c.GetStatus("loop"); ok && st.Status == StatusHealthy {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected Start's background loop to mark the pool healthy")
}

func TestGetAllStatusesSnapshotsEveryPool(t *testing.T) {
	c := NewChecker(nil, Config{})
	c.Register("a", "redis", &fakePool{})
	c.Register("b", "mysql", &fakePool{})
	c.checkAll()

	all := c.GetAllStatuses()
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	if _, ok := all["a"]; !ok {
		t.Fatal("missing status for pool a")
	}
	if _, ok := all["b"]; !ok {
		t.Fatal("missing status for pool b")
	}
}
