package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestUpdatePoolStatsSetsGaugeValues(t *testing.T) {
	c := New()
	c.UpdatePoolStats("redis", "cache-a", 3, 2, 5)

	var m dto.Metric
	if err := c.connectionsActive.WithLabelValues("redis", "cache-a").Write(&m); err != nil {
		t.Fatalf("write active: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 3 {
		t.Fatalf("active = %v, want 3", got)
	}

	var idle dto.Metric
	if err := c.connectionsIdle.WithLabelValues("redis", "cache-a").Write(&idle); err != nil {
		t.Fatalf("write idle: %v", err)
	}
	if got := idle.GetGauge().GetValue(); got != 2 {
		t.Fatalf("idle = %v, want 2", got)
	}

	var total dto.Metric
	if err := c.connectionsTotal.WithLabelValues("redis", "cache-a").Write(&total); err != nil {
		t.Fatalf("write total: %v", err)
	}
	if got := total.GetGauge().GetValue(); got != 5 {
		t.Fatalf("total = %v, want 5", got)
	}
}

func TestPoolExhaustedIncrementsCounter(t *testing.T) {
	c := New()
	c.PoolExhausted("postgresql", "orders")
	c.PoolExhausted("postgresql", "orders")

	var m dto.Metric
	if err := c.poolExhausted.WithLabelValues("postgresql", "orders").Write(&m); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Fatalf("exhausted count = %v, want 2", got)
	}
}

func TestSetPoolHealthReflectsStatus(t *testing.T) {
	c := New()
	c.SetPoolHealth("orders", true)

	var healthy dto.Metric
	if err := c.poolHealth.WithLabelValues("orders").Write(&healthy); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := healthy.GetGauge().GetValue(); got != 1 {
		t.Fatalf("health = %v, want 1", got)
	}

	c.SetPoolHealth("orders", false)
	var unhealthy dto.Metric
	if err := c.poolHealth.WithLabelValues("orders").Write(&unhealthy); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := unhealthy.GetGauge().GetValue(); got != 0 {
		t.Fatalf("health = %v, want 0", got)
	}
}

func TestBorrowWaitDurationObserves(t *testing.T) {
	c := New()
	c.BorrowWaitDuration("mongodb", "events", 15*time.Millisecond)

	var m dto.Metric
	if err := c.borrowWaitDuration.WithLabelValues("mongodb", "events").Write(&m); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := m.GetHistogram().GetSampleCount(); got != 1 {
		t.Fatalf("sample count = %v, want 1", got)
	}
}

func TestRemovePoolDeletesSeries(t *testing.T) {
	c := New()
	c.UpdatePoolStats("redis", "cache-a", 1, 1, 2)
	c.SetPoolHealth("cache-a", true)

	c.RemovePool("redis", "cache-a")

	var m dto.Metric
	err := c.connectionsActive.WithLabelValues("redis", "cache-a").Write(&m)
	if err != nil {
		t.Fatalf("write after delete should still succeed on a fresh series: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 0 {
		t.Fatalf("active after RemovePool = %v, want 0 (fresh series)", got)
	}
}

func TestNewRegistryIsIndependentPerCall(t *testing.T) {
	a := New()
	b := New()
	if a.Registry == b.Registry {
		t.Fatal("expected independent registries across calls to New")
	}
}
