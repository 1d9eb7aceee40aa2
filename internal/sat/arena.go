package sat

import "errors"

// ErrOutOfMemory is reported when allocating a clause would exceed the
// arena's configured memory limit.
var ErrOutOfMemory = errors.New("clause arena memory limit exceeded")

// Literals per region. Clauses larger than this get a dedicated region.
const defaultRegionSize = 1 << 18

// Rough per-clause header cost used for memory accounting.
const clauseHeaderBytes = 48

// region is a fixed-capacity heaplet. Clauses are bump-allocated; neither the
// clause headers nor the literal storage ever reallocate, so clause pointers
// stay valid for the lifetime of the region.
type region struct {
	clauses []Clause
	lits    []Literal
}

func newRegion(maxClauses, maxLits int) *region {
	return &region{
		clauses: make([]Clause, 0, maxClauses),
		lits:    make([]Literal, 0, maxLits),
	}
}

// allocate reserves storage for a clause with size literals. It returns nil
// if the region cannot fit the clause.
func (r *region) allocate(size int) *Clause {
	if len(r.clauses) == cap(r.clauses) || cap(r.lits)-len(r.lits) < size {
		return nil
	}
	off := len(r.lits)
	r.lits = r.lits[:off+size]
	r.clauses = append(r.clauses, Clause{
		lits:        r.lits[off : off+size : off+size],
		initialSize: int32(size),
	})
	return &r.clauses[len(r.clauses)-1]
}

func (r *region) bytes() int64 {
	return int64(cap(r.lits))*4 + int64(cap(r.clauses))*clauseHeaderBytes
}

// Arena owns all clause storage. Allocation is O(1) bump allocation into the
// most recent region; space of deletion-scheduled clauses is reclaimed by
// building a fresh arena during compaction.
type Arena struct {
	regions    []*region
	regionSize int
	limitBytes int64
	usedBytes  int64
}

// NewArena returns an arena that will refuse allocations beyond limitBytes.
// A non-positive limit means unlimited.
func NewArena(limitBytes int64) *Arena {
	return &Arena{regionSize: defaultRegionSize, limitBytes: limitBytes}
}

func (a *Arena) addRegion(maxClauses, maxLits int) (*region, error) {
	r := newRegion(maxClauses, maxLits)
	if a.limitBytes > 0 && a.usedBytes+r.bytes() > a.limitBytes {
		return nil, ErrOutOfMemory
	}
	a.usedBytes += r.bytes()
	a.regions = append(a.regions, r)
	return r, nil
}

// Allocate copies lits into arena-owned storage and returns the new clause.
func (a *Arena) Allocate(lits []Literal, learnt bool) (*Clause, error) {
	size := len(lits)
	var c *Clause
	if size > a.regionSize {
		r, err := a.addRegion(1, size)
		if err != nil {
			return nil, err
		}
		c = r.allocate(size)
	} else {
		if n := len(a.regions); n > 0 {
			c = a.regions[n-1].allocate(size)
		}
		if c == nil {
			r, err := a.addRegion(a.regionSize/2, a.regionSize)
			if err != nil {
				return nil, err
			}
			c = r.allocate(size)
		}
	}
	copy(c.lits, lits)
	if learnt {
		c.flags = flagLearnt
	}
	return c, nil
}

// clone copies c, including flags and LBD, into this arena.
func (a *Arena) clone(c *Clause) (*Clause, error) {
	nc, err := a.Allocate(c.lits, false)
	if err != nil {
		return nil, err
	}
	nc.flags = c.flags
	nc.lbd = c.lbd
	return nc, nil
}

// Clauses calls fn for every allocated clause, in allocation order, until fn
// returns false. Deletion-scheduled clauses are included.
func (a *Arena) Clauses(fn func(*Clause) bool) {
	for _, r := range a.regions {
		for i := range r.clauses {
			if !fn(&r.clauses[i]) {
				return
			}
		}
	}
}

// Bytes returns the memory currently reserved by the arena.
func (a *Arena) Bytes() int64 {
	return a.usedBytes
}
