package tier

// Count is a per-metric quota ceiling: a non-negative integer or unbounded.
// Unbounded counts always permit the action and are never decremented.
type Count struct {
	limit     int64
	unbounded bool
}

func CountOf(n int64) Count {
	if n < 0 {
		return Unbounded()
	}
	return Count{limit: n}
}

func Unbounded() Count {
	return Count{unbounded: true}
}

func (c Count) IsUnbounded() bool { return c.unbounded }

// Limit returns the numeric ceiling. Only meaningful when not unbounded.
func (c Count) Limit() int64 { return c.limit }

// Allows reports whether one more action is permitted given current usage.
func (c Count) Allows(used int64) bool {
	if c.unbounded {
		return true
	}
	return used < c.limit
}
