package pipeline

// batchSpan computes the half-open interval [lo, hi) of plan entries the
// next batch covers. The cursor is clamped into [0, total] so an overshot
// position yields an empty span rather than a panic, and hi never passes
// total.
func batchSpan(total, pos, size int) (lo, hi int) {
	lo = pos
	if lo < 0 {
		lo = 0
	}
	if lo > total {
		lo = total
	}
	hi = lo + size
	if hi < lo {
		hi = lo
	}
	if hi > total {
		hi = total
	}
	return lo, hi
}
