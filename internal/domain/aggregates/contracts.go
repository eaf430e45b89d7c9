package aggregates

// LockPolicy is how a write boundary serializes writers on its root row.
type LockPolicy string

const (
	// LockRowThenSwap takes a row lock, then re-checks the state it read with a guarded update.
	LockRowThenSwap LockPolicy = "row_lock_then_swap"
	// LockRow takes a row lock and writes unconditionally.
	LockRow LockPolicy = "row_lock"
)

// Contract names a write boundary, its root table and every table it may write.
type Contract struct {
	Name   string
	Root   string
	Writes []string
	Lock   LockPolicy
}

// Covers reports whether table is written by the boundary.
func (c Contract) Covers(table string) bool {
	if table == c.Root {
		return true
	}
	for _, t := range c.Writes {
		if t == table {
			return true
		}
	}
	return false
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}
