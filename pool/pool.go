package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbcx/dbcx"
)

// Dialer constructs a fresh physical connection. Backend-specialized pools
// supply one backed by their Driver.Connect.
type Dialer[P Physical] func(ctx context.Context) (P, error)

// borrowPollInterval is the step spec.md §4.1 step 4 prescribes: "poll
// every 10 ms for the condition idle non-empty or running == false."
const borrowPollInterval = 10 * time.Millisecond

// closeDrainTimeout bounds how long Close waits for active handles to
// drain before forcibly zeroing active_count (spec.md §3, §9).
const closeDrainTimeout = 10 * time.Second

// Pool is the generic connection pool of spec.md §4.1, parameterized over
// a backend's physical connection type P. Five mutexes are acquired in one
// fixed global order everywhere in this file — mx_borrow < mx_return <
// mx_all < mx_idle < mx_maintenance. Each site takes the locks it needs
// inline, one after another in that order; there is no shared multi-lock
// helper, so every site is written against the order stated here.
type Pool[P Physical] struct {
	cfg  Config
	dial Dialer[P]
	name string

	muBorrow      sync.Mutex
	muReturn      sync.Mutex
	muAll         sync.Mutex
	muIdle        sync.Mutex
	muMaintenance sync.Mutex
	cvMaintenance *sync.Cond

	all  map[*entry[P]]struct{}
	idle []*entry[P] // FIFO: append at back, pop from front (oldest-idle first)

	activeCount atomic.Int64
	running     atomic.Bool
	poolAlive   *atomic.Bool

	exhausted atomic.Int64

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a pool, fills it to InitialSize, and starts the maintenance
// worker — strictly in that order, matching spec.md §3's lifecycle ("runs
// initialize() ... strictly after shared ownership is established"). If
// filling to InitialSize fails, the partially built pool is torn down via
// Close and a "failed to initialize" error is returned.
func New[P Physical](ctx context.Context, name string, cfg Config, dial Dialer[P]) (*Pool[P], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	alive := &atomic.Bool{}
	alive.Store(true)

	p := &Pool[P]{
		cfg:       cfg,
		dial:      dial,
		name:      name,
		all:       make(map[*entry[P]]struct{}),
		idle:      make([]*entry[P], 0, cfg.InitialSize),
		poolAlive: alive,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	p.cvMaintenance = sync.NewCond(&p.muMaintenance)
	p.running.Store(true)

	if err := p.fillInitial(ctx); err != nil {
		// No maintenance worker was started, so nothing else closes doneCh
		// for Close to wait on.
		close(p.doneCh)
		p.Close()
		return nil, dbcx.Wrap(dbcx.CodeTransportError, fmt.Errorf("failed to initialize pool: %w", err))
	}

	go p.maintenanceLoop()
	return p, nil
}

func (p *Pool[P]) fillInitial(ctx context.Context) error {
	for i := 0; i < p.cfg.InitialSize; i++ {
		e, err := p.createEntry(ctx)
		if err != nil {
			return err
		}
		p.muAll.Lock()
		p.all[e] = struct{}{}
		p.muAll.Unlock()
		p.muIdle.Lock()
		p.idle = append(p.idle, e)
		p.muIdle.Unlock()
	}
	return nil
}

func (p *Pool[P]) createEntry(ctx context.Context) (*entry[P], error) {
	phys, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	return newEntry[P](phys), nil
}

// Running reports whether the pool still accepts borrows.
func (p *Pool[P]) Running() bool { return p.running.Load() }

// Borrow implements spec.md §4.1's borrow algorithm, steps 1-5.
func (p *Pool[P]) Borrow(ctx context.Context) (*Handle[P], error) {
	start := time.Now()
	deadline, unbounded := p.computeDeadline(ctx)

	p.muBorrow.Lock()
	defer p.muBorrow.Unlock()

	for {
		// Step 1: fail fast if not running. Checked here and again after
		// each wait-wake, per spec.md §9's "checked twice" guidance for
		// Borrow racing Close.
		if !p.running.Load() {
			return nil, dbcx.NewError(dbcx.CodePoolClosed, "pool closed")
		}
		select {
		case <-ctx.Done():
			return nil, dbcx.Wrap(dbcx.CodeTimeout, ctx.Err())
		default:
		}

		// Step 2: try an idle wrapper.
		if e, ok := p.popIdleLocked(); ok {
			if p.cfg.TestOnBorrow {
				if err := p.validateEntry(ctx, e); err != nil {
					p.recordValidationFailed()
					p.retireLocked(e)
					if p.running.Load() {
						if repl, rerr := p.createEntry(ctx); rerr == nil {
							p.admitLocked(repl)
							p.recordBorrowWait(start)
							p.reportStats()
							return p.activate(repl), nil
						}
					}
					// Validation and replacement both failed (or the pool
					// stopped in between): fall through to waiting.
					continue
				}
			}
			p.recordBorrowWait(start)
			p.reportStats()
			return p.activate(e), nil
		}

		// Step 3: grow if under the cap.
		if e, ok := p.tryGrow(ctx); ok {
			p.recordBorrowWait(start)
			p.reportStats()
			return p.activate(e), nil
		}

		// Step 4: wait.
		if !unbounded && time.Now().After(deadline) {
			return nil, dbcx.NewError(dbcx.CodeTimeout, "borrow timeout: pool exhausted")
		}
		p.exhausted.Add(1)
		p.recordExhausted()
		time.Sleep(borrowPollInterval)
	}
}

// recordBorrowWait observes how long this Borrow call waited, when a
// metrics.Collector is configured.
func (p *Pool[P]) recordBorrowWait(start time.Time) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.BorrowWaitDuration(p.cfg.Backend, p.name, time.Since(start))
	}
}

// recordExhausted increments the exhaustion counter each time Borrow has
// to sleep for a connection, when a metrics.Collector is configured.
func (p *Pool[P]) recordExhausted() {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.PoolExhausted(p.cfg.Backend, p.name)
	}
}

// recordValidationFailed increments the validation-failure counter, when
// a metrics.Collector is configured.
func (p *Pool[P]) recordValidationFailed() {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.ValidationFailed(p.cfg.Backend, p.name)
	}
}

// reportStats pushes current active/idle/total counts to the configured
// metrics.Collector, a no-op when none was given.
func (p *Pool[P]) reportStats() {
	if p.cfg.Metrics == nil {
		return
	}
	s := p.Stats()
	p.cfg.Metrics.UpdatePoolStats(p.cfg.Backend, p.name, s.Active, s.Idle, s.Total)
}

func (p *Pool[P]) computeDeadline(ctx context.Context) (time.Time, bool) {
	unbounded := p.cfg.MaxWait <= 0
	deadline := time.Now().Add(p.cfg.MaxWait)
	if d, ok := ctx.Deadline(); ok {
		if unbounded || d.Before(deadline) {
			deadline = d
			unbounded = false
		}
	}
	return deadline, unbounded
}

// popIdleLocked pops the oldest idle entry under mx_all + mx_idle jointly.
func (p *Pool[P]) popIdleLocked() (*entry[P], bool) {
	p.muAll.Lock()
	defer p.muAll.Unlock()
	p.muIdle.Lock()
	defer p.muIdle.Unlock()

	if len(p.idle) == 0 {
		return nil, false
	}
	e := p.idle[0]
	p.idle = p.idle[1:]
	return e, true
}

// retireLocked removes e from all and closes its physical. e must already
// be out of idle.
func (p *Pool[P]) retireLocked(e *entry[P]) {
	p.muAll.Lock()
	delete(p.all, e)
	p.muAll.Unlock()
	if err := e.physical.Close(); err != nil {
		slog.Debug("pool: error closing retired connection", "pool", p.name, "err", err)
	}
}

func (p *Pool[P]) admitLocked(e *entry[P]) {
	p.muAll.Lock()
	p.all[e] = struct{}{}
	p.muAll.Unlock()
}

func (p *Pool[P]) activate(e *entry[P]) *Handle[P] {
	e.active.Store(true)
	e.touch()
	p.activeCount.Add(1)
	return &Handle[P]{Physical: e.physical, pool: p, poolAlive: p.poolAlive, entry: e}
}

// tryGrow creates a new entry if |all| < max_size, double-checking the cap
// under mx_all after the (blocking) dial completes, per spec.md §4.1 step 3.
func (p *Pool[P]) tryGrow(ctx context.Context) (*entry[P], bool) {
	p.muAll.Lock()
	n := len(p.all)
	p.muAll.Unlock()
	if n >= p.cfg.MaxSize {
		return nil, false
	}

	e, err := p.createEntry(ctx)
	if err != nil {
		return nil, false
	}

	p.muAll.Lock()
	if len(p.all) >= p.cfg.MaxSize {
		p.muAll.Unlock()
		if cerr := e.physical.Close(); cerr != nil {
			slog.Debug("pool: error closing surplus connection", "pool", p.name, "err", cerr)
		}
		return nil, false
	}
	p.all[e] = struct{}{}
	p.muAll.Unlock()
	return e, true
}

func (p *Pool[P]) validateEntry(ctx context.Context, e *entry[P]) error {
	if e.physical.IsClosed() {
		return dbcx.NewError(dbcx.CodeValidationFailed, "connection is closed")
	}
	vctx := ctx
	if p.cfg.ValidationTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, p.cfg.ValidationTimeout)
		defer cancel()
	}
	if err := e.physical.Ping(vctx); err != nil {
		return dbcx.Wrap(dbcx.CodeValidationFailed, err)
	}
	return nil
}

// doReturn implements spec.md §4.1's return algorithm. It reports whether
// e was re-queued into idle (as opposed to dropped or replaced) so Handle
// knows whether to make itself borrowable again.
func (p *Pool[P]) doReturn(e *entry[P]) (requeued bool, err error) {
	p.muReturn.Lock()
	defer p.muReturn.Unlock()

	// Step 1: ignore double returns.
	if !e.active.Load() {
		return false, nil
	}

	// Step 2: verify membership.
	p.muAll.Lock()
	_, inAll := p.all[e]
	p.muAll.Unlock()
	if !inAll {
		return false, nil
	}

	// Step 3: pool stopped — drop, do not re-queue.
	if !p.running.Load() {
		p.retireActive(e)
		return false, nil
	}

	// Step 4: validate on return if configured.
	if p.cfg.TestOnReturn {
		if verr := p.validateEntry(context.Background(), e); verr != nil {
			p.recordValidationFailed()
			p.retireActive(e)
			p.replaceAfterFailedReturn(context.Background())
			p.reportStats()
			return false, verr
		}
	}

	e.active.Store(false)
	e.touch()
	p.muIdle.Lock()
	p.idle = append(p.idle, e)
	p.muIdle.Unlock()
	p.activeCount.Add(-1)
	p.notifyMaintenance()
	p.reportStats()
	return true, nil
}

// retireActive removes an active (not idle) entry from all, decrements
// active_count, and closes its physical.
func (p *Pool[P]) retireActive(e *entry[P]) {
	e.active.Store(false)
	p.activeCount.Add(-1)
	p.muAll.Lock()
	delete(p.all, e)
	p.muAll.Unlock()
	if err := e.physical.Close(); err != nil {
		slog.Debug("pool: error closing retired connection", "pool", p.name, "err", err)
	}
}

// replaceAfterFailedReturn synthesizes a fresh idle entry after a
// test-on-return validation failure, per spec.md §4.1 step 4's "on
// failure ... replace the slot in all with a freshly built wrapper and
// push the new one into idle."
func (p *Pool[P]) replaceAfterFailedReturn(ctx context.Context) {
	repl, err := p.createEntry(ctx)
	if err != nil {
		slog.Warn("pool: failed to replace invalid connection on return", "pool", p.name, "err", err)
		p.notifyMaintenance()
		return
	}
	p.admitLocked(repl)
	p.muIdle.Lock()
	p.idle = append(p.idle, repl)
	p.muIdle.Unlock()
	p.notifyMaintenance()
}

func (p *Pool[P]) notifyMaintenance() {
	p.muMaintenance.Lock()
	p.cvMaintenance.Signal()
	p.muMaintenance.Unlock()
}

// Stats returns current pool statistics (spec.md §6).
func (p *Pool[P]) Stats() Stats {
	p.muAll.Lock()
	total := len(p.all)
	p.muAll.Unlock()
	p.muIdle.Lock()
	idle := len(p.idle)
	p.muIdle.Unlock()
	return Stats{Active: int(p.activeCount.Load()), Idle: idle, Total: total}
}

// Exhausted returns how many 10 ms wait steps Borrow calls have taken
// because no connection was free; one Borrow that waits 50 ms adds about 5.
func (p *Pool[P]) Exhausted() int64 { return p.exhausted.Load() }

// Close shuts the pool down (spec.md §3): running flips false first,
// pool_alive is cleared so outstanding handles detect a dead pool on their
// next Close, active handles get up to 10s to drain before active_count is
// forced to zero, the maintenance worker is stopped, and every remaining
// entry is disposed. Safe to call more than once.
func (p *Pool[P]) Close() error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}
	p.poolAlive.Store(false)
	close(p.stopCh)

	p.muMaintenance.Lock()
	p.cvMaintenance.Broadcast()
	p.muMaintenance.Unlock()

	deadline := time.Now().Add(closeDrainTimeout)
	for p.activeCount.Load() != 0 {
		if time.Now().After(deadline) {
			slog.Warn("pool: forcing active_count to zero after drain timeout", "pool", p.name)
			p.activeCount.Store(0)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	<-p.doneCh

	p.muAll.Lock()
	p.muIdle.Lock()
	for e := range p.all {
		if err := e.physical.Close(); err != nil {
			slog.Debug("pool: error closing connection during shutdown", "pool", p.name, "err", err)
		}
	}
	p.all = make(map[*entry[P]]struct{})
	p.idle = nil
	p.muIdle.Unlock()
	p.muAll.Unlock()
	return nil
}

// maintenanceLoop is the single background worker of spec.md §4.1: wait on
// cv_maintenance with a 30s timeout or until running clears, then prune
// expired idle entries and replenish up to min_idle.
func (p *Pool[P]) maintenanceLoop() {
	defer close(p.doneCh)
	for {
		p.muMaintenance.Lock()
		if !p.running.Load() {
			p.muMaintenance.Unlock()
			return
		}
		timer := time.AfterFunc(30*time.Second, func() {
			p.muMaintenance.Lock()
			p.cvMaintenance.Broadcast()
			p.muMaintenance.Unlock()
		})
		p.cvMaintenance.Wait()
		timer.Stop()
		stopping := !p.running.Load()
		p.muMaintenance.Unlock()

		p.runMaintenanceTick()

		if stopping {
			return
		}
	}
}

func (p *Pool[P]) runMaintenanceTick() {
	p.muAll.Lock()
	p.muIdle.Lock()

	now := time.Now()
	kept := make([]*entry[P], 0, len(p.idle))
	for _, e := range p.idle {
		idleTime := now.Sub(e.LastUsedAt())
		lifeTime := now.Sub(e.createdAt)
		expired := (p.cfg.IdleTimeout > 0 && idleTime > p.cfg.IdleTimeout) ||
			(p.cfg.MaxLifetime > 0 && lifeTime > p.cfg.MaxLifetime)
		if expired && len(p.all) > p.cfg.MinIdle {
			delete(p.all, e)
			if err := e.physical.Close(); err != nil {
				slog.Debug("pool: error closing pruned connection", "pool", p.name, "err", err)
			}
			continue
		}
		kept = append(kept, e)
	}
	p.idle = kept

	for p.running.Load() && len(p.all) < p.cfg.MinIdle {
		p.muIdle.Unlock()
		p.muAll.Unlock()

		e, err := p.createEntry(context.Background())

		p.muAll.Lock()
		p.muIdle.Lock()
		if err != nil {
			slog.Warn("pool: maintenance failed to replenish min-idle", "pool", p.name, "err", err)
			break
		}
		if len(p.all) >= p.cfg.MaxSize {
			p.muIdle.Unlock()
			p.muAll.Unlock()
			if cerr := e.physical.Close(); cerr != nil {
				slog.Debug("pool: error closing surplus replenishment connection", "pool", p.name, "err", cerr)
			}
			p.muAll.Lock()
			p.muIdle.Lock()
			break
		}
		p.all[e] = struct{}{}
		p.idle = append(p.idle, e)
	}

	p.muIdle.Unlock()
	p.muAll.Unlock()
	p.reportStats()
}
