package sat

import "strings"

type clauseFlags uint8

const (
	flagLearnt clauseFlags = 0b0001

	// Marks a clause whose storage will be reclaimed at the next compaction.
	// Scheduled clauses are skipped by compaction and lazily dropped from
	// occurrence lists.
	flagScheduledForDeletion clauseFlags = 0b0010

	// Set when simplification shrinks or rewrites the clause in place.
	flagModified clauseFlags = 0b0100
)

// Clause is a fixed-capacity sequence of literals plus bookkeeping flags.
// Clause values live inside arena regions; pointers to them are stable until
// the next compaction.
type Clause struct {
	// Current literals. The slice shrinks when the clause is strengthened;
	// its capacity stays at the allocation size.
	lits []Literal

	// Length at allocation time. Region traversal steps by this size, so it
	// never changes after allocation.
	initialSize int32

	// Literal block distance. Zero for problem clauses.
	lbd uint32

	flags clauseFlags
}

// Size returns the current number of literals.
func (c *Clause) Size() int {
	return len(c.lits)
}

// InitialSize returns the clause length at allocation time.
func (c *Clause) InitialSize() int {
	return int(c.initialSize)
}

// Literals returns the clause's current literals. The returned slice aliases
// the clause storage and must not be retained across compaction.
func (c *Clause) Literals() []Literal {
	return c.lits
}

// Contains returns true iff l occurs in the clause.
func (c *Clause) Contains(l Literal) bool {
	for _, cl := range c.lits {
		if cl == l {
			return true
		}
	}
	return false
}

// IsLearnt returns true iff the clause was derived during search.
func (c *Clause) IsLearnt() bool {
	return c.flags&flagLearnt != 0
}

// IsScheduledForDeletion returns true iff the clause awaits reclamation.
func (c *Clause) IsScheduledForDeletion() bool {
	return c.flags&flagScheduledForDeletion != 0
}

// ScheduleForDeletion marks the clause for reclamation at the next
// compaction.
func (c *Clause) ScheduleForDeletion() {
	c.flags |= flagScheduledForDeletion
}

// IsModified returns true iff simplification rewrote the clause in place.
func (c *Clause) IsModified() bool {
	return c.flags&flagModified != 0
}

func (c *Clause) setModified() {
	c.flags |= flagModified
}

func (c *Clause) clearModified() {
	c.flags &^= flagModified
}

// LBD returns the clause's literal block distance.
func (c *Clause) LBD() uint32 {
	return c.lbd
}

// SetLBD updates the clause's literal block distance.
func (c *Clause) SetLBD(lbd uint32) {
	c.lbd = lbd
}

// removeLiteral deletes the literal at index i, preserving the order of the
// remaining literals.
func (c *Clause) removeLiteral(i int) {
	copy(c.lits[i:], c.lits[i+1:])
	c.lits = c.lits[:len(c.lits)-1]
	c.setModified()
}

func (c *Clause) String() string {
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	for i, l := range c.lits {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
