package sat

// watcher is an entry in a literal's watch list. widx identifies which of the
// clause's two watched slots this entry tracks; blocker is a clause literal
// whose truth proves the clause satisfied without touching clause storage.
type watcher struct {
	clause  *Clause
	blocker Literal
	widx    int8
}

// binaryWatcher is a watch-list entry for a binary clause. The clause's other
// literal is stored inline so that unit propagation over binaries never loads
// clause storage.
type binaryWatcher struct {
	clause *Clause
	other  Literal
}

// Watchers indexes clauses by the literals whose assignment can falsify one
// of their watched literals: the entries for clause C live in the lists of
// ¬C[0] and ¬C[1]. Binary clauses are kept in separate lists.
type Watchers struct {
	long [][]watcher
	bin  [][]binaryWatcher
}

// NewWatchers returns a watcher index for numVars variables.
func NewWatchers(numVars int) *Watchers {
	w := &Watchers{}
	w.IncreaseMaxVar(numVars)
	return w
}

// IncreaseMaxVar grows the literal index space to cover numVars variables.
func (w *Watchers) IncreaseMaxVar(numVars int) {
	for len(w.long) < 2*numVars {
		w.long = append(w.long, nil)
		w.bin = append(w.bin, nil)
	}
}

// Register adds watcher entries for c. The clause's first two literals become
// the watched literals.
func (w *Watchers) Register(c *Clause) {
	l0, l1 := c.lits[0], c.lits[1]
	if c.Size() == 2 {
		w.bin[l0.Opposite()] = append(w.bin[l0.Opposite()], binaryWatcher{clause: c, other: l1})
		w.bin[l1.Opposite()] = append(w.bin[l1.Opposite()], binaryWatcher{clause: c, other: l0})
		return
	}
	w.long[l0.Opposite()] = append(w.long[l0.Opposite()], watcher{clause: c, blocker: l1, widx: 0})
	w.long[l1.Opposite()] = append(w.long[l1.Opposite()], watcher{clause: c, blocker: l0, widx: 1})
}

// Unregister removes all watcher entries referring to c. The clause's current
// watched literals must still be at slots 0 and 1.
func (w *Watchers) Unregister(c *Clause) {
	if c.Size() == 2 {
		w.removeBinary(c.lits[0].Opposite(), c)
		w.removeBinary(c.lits[1].Opposite(), c)
		return
	}
	w.removeLong(c.lits[0].Opposite(), c)
	w.removeLong(c.lits[1].Opposite(), c)
}

func (w *Watchers) removeLong(l Literal, c *Clause) {
	ws := w.long[l]
	j := 0
	for i := range ws {
		if ws[i].clause != c {
			ws[j] = ws[i]
			j++
		}
	}
	w.long[l] = ws[:j]
}

func (w *Watchers) removeBinary(l Literal, c *Clause) {
	ws := w.bin[l]
	j := 0
	for i := range ws {
		if ws[i].clause != c {
			ws[j] = ws[i]
			j++
		}
	}
	w.bin[l] = ws[:j]
}

// Clear drops all watcher entries, keeping the index capacity.
func (w *Watchers) Clear() {
	for i := range w.long {
		w.long[i] = w.long[i][:0]
		w.bin[i] = w.bin[i][:0]
	}
}

// ClausesInPropagationOrder calls fn once per registered clause, following
// watcher-list traversal order (ascending literal index, then list order).
// Each clause is reported on its first encounter only.
func (w *Watchers) ClausesInPropagationOrder(fn func(*Clause)) {
	seen := make(map[*Clause]struct{}, len(w.long))
	for l := range w.long {
		for _, bw := range w.bin[l] {
			if _, ok := seen[bw.clause]; !ok {
				seen[bw.clause] = struct{}{}
				fn(bw.clause)
			}
		}
		for _, lw := range w.long[l] {
			if _, ok := seen[lw.clause]; !ok {
				seen[lw.clause] = struct{}{}
				fn(lw.clause)
			}
		}
	}
}

// binariesWith calls fn with the second literal of every registered binary
// clause containing l.
func (w *Watchers) binariesWith(l Literal, fn func(other Literal)) {
	for _, bw := range w.bin[l.Opposite()] {
		if !bw.clause.IsScheduledForDeletion() {
			fn(bw.other)
		}
	}
}
