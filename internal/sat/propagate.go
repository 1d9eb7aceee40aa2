package sat

// propagationMode selects which clauses participate in propagation.
type propagationMode uint8

const (
	// includeRedundant propagates over all registered clauses.
	includeRedundant propagationMode = iota

	// excludeRedundant skips learnt clauses. Used by in-processing probes so
	// that derived strengthenings do not depend on redundant clauses.
	excludeRedundant
)

// propagateToFixpoint runs unit propagation until no unprocessed trail
// literals remain or a conflict is found. It returns the first conflicting
// clause, or nil on fixpoint. On conflict the trail is left untouched for
// conflict analysis.
func (s *Solver) propagateToFixpoint(mode propagationMode) *Clause {
	for s.assign.hasPending() {
		l := s.assign.nextPending()
		if confl := s.propagateLiteral(l, mode); confl != nil {
			return confl
		}
	}
	return nil
}

// propagateLiteral visits all watchers of ¬l after l became true.
func (s *Solver) propagateLiteral(l Literal, mode propagationMode) *Clause {
	// Binary clauses carry the other literal inline; no clause storage is
	// touched unless a reason must be recorded.
	for _, bw := range s.watch.bin[l] {
		if bw.clause.IsScheduledForDeletion() {
			continue
		}
		if mode == excludeRedundant && bw.clause.IsLearnt() {
			continue
		}
		switch s.assign.Value(bw.other) {
		case True:
		case Unknown:
			s.assign.AppendWithReason(bw.other, bw.clause)
			s.stats.Propagations++
		case False:
			return bw.clause
		}
	}

	ws := s.watch.long[l]
	j := 0
	for i := 0; i < len(ws); i++ {
		w := ws[i]
		c := w.clause
		if c.IsScheduledForDeletion() {
			continue // drop the entry
		}
		if mode == excludeRedundant && c.IsLearnt() {
			ws[j] = w
			j++
			continue
		}
		if s.assign.Value(w.blocker) == True {
			ws[j] = w
			j++
			continue
		}

		other := c.lits[1-w.widx]
		if s.assign.Value(other) == True {
			w.blocker = other
			ws[j] = w
			j++
			continue
		}

		// Scan for a replacement watch among the unwatched literals.
		relocated := false
		for k := 2; k < len(c.lits); k++ {
			if s.assign.Value(c.lits[k]) != False {
				c.lits[w.widx], c.lits[k] = c.lits[k], c.lits[w.widx]
				trigger := c.lits[w.widx].Opposite()
				s.watch.long[trigger] = append(s.watch.long[trigger],
					watcher{clause: c, blocker: other, widx: w.widx})
				relocated = true
				break
			}
		}
		if relocated {
			continue
		}

		ws[j] = w
		j++
		if s.assign.Value(other) == Unknown {
			s.assign.AppendWithReason(other, c)
			s.stats.Propagations++
			continue
		}

		// Conflict: keep the remaining entries before reporting.
		for i++; i < len(ws); i++ {
			ws[j] = ws[i]
			j++
		}
		s.watch.long[l] = ws[:j]
		return c
	}
	s.watch.long[l] = ws[:j]
	return nil
}

// isAssignmentReason returns true iff c currently forces an assignment on the
// trail.
func (s *Solver) isAssignmentReason(c *Clause) bool {
	for i := 0; i < 2 && i < len(c.lits); i++ {
		v := c.lits[i].Variable()
		if s.assign.VarValue(v).Determinate() && s.assign.Reason(v) == c {
			return true
		}
	}
	return false
}
