package pool

// Stats surfaces the non-negative counters spec.md §6 names: active, idle,
// total. Backend-specialized pools may wrap this with extra fields (pool
// mode, exhaustion counters) the way dbbouncer's own Stats struct does for
// its tenant pools.
type Stats struct {
	Active int
	Idle   int
	Total  int
}
