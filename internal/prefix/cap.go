package prefix

import "sync/atomic"

// Cap is the crawl-wide admitted-record budget shared by every worker. A nil
// Cap or a zero limit means unlimited.
type Cap struct {
	limit int64
	count atomic.Int64
}

// NewCap builds a shared cap; limit 0 disables it.
func NewCap(limit int) *Cap {
	return &Cap{limit: int64(limit)}
}

// Reached reports whether the budget is exhausted. Workers check it before
// every detail visit so they stop spending navigation budget promptly.
func (c *Cap) Reached() bool {
	if c == nil || c.limit <= 0 {
		return false
	}
	return c.count.Load() >= c.limit
}

// TryAdmit reserves one slot, returning false when the budget is already
// spent. The reservation is atomic, so the total admitted across workers
// never exceeds the limit.
func (c *Cap) TryAdmit() bool {
	if c == nil || c.limit <= 0 {
		return true
	}
	for {
		cur := c.count.Load()
		if cur >= c.limit {
			return false
		}
		if c.count.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Admitted returns how many slots have been taken.
func (c *Cap) Admitted() int {
	if c == nil {
		return 0
	}
	return int(c.count.Load())
}
