package sat

import "github.com/rhartert/yagh"

// Threshold beyond which all activities and the increment are rescaled to
// keep them representable while preserving proportions.
const activityRescaleThreshold = 1e100

// VarOrder implements VSIDS branching: a max-heap over branching-eligible
// variables keyed on activity, a per-conflict additive bump realized by
// growing the increment, and saved-phase decision polarity.
type VarOrder struct {
	// Min-heap over negated activities, so the most active variable pops
	// first. Ties break on variable index.
	heap *yagh.IntMap[float64]

	activities []float64
	bump       float64
	decay      float64

	// Variables excluded from branching (e.g. eliminated by simplification).
	ineligible []bool
}

// NewVarOrder returns a variable order with the given per-conflict decay
// factor in (0, 1].
func NewVarOrder(decay float64, numVars int) *VarOrder {
	vo := &VarOrder{
		heap:  yagh.New[float64](0),
		bump:  1,
		decay: decay,
	}
	vo.IncreaseMaxVar(numVars)
	return vo
}

// IncreaseMaxVar grows the order to numVars variables, each starting with
// zero activity and eligible for branching.
func (vo *VarOrder) IncreaseMaxVar(numVars int) {
	for len(vo.activities) < numVars {
		v := len(vo.activities)
		vo.activities = append(vo.activities, 0)
		vo.ineligible = append(vo.ineligible, false)
		vo.heap.GrowBy(1)
		vo.heap.Put(v, 0)
	}
}

// Bump increases v's activity by the current increment.
func (vo *VarOrder) Bump(v Var) {
	score := vo.activities[v] + vo.bump
	vo.activities[v] = score
	if vo.heap.Contains(int(v)) {
		vo.heap.Put(int(v), -score)
	}
	if score > activityRescaleThreshold {
		vo.rescale()
	}
}

// Decay ages all activities by growing the increment applied to future bumps.
func (vo *VarOrder) Decay() {
	vo.bump /= vo.decay
	if vo.bump > activityRescaleThreshold {
		vo.rescale()
	}
}

func (vo *VarOrder) rescale() {
	vo.bump /= activityRescaleThreshold
	for v, a := range vo.activities {
		scaled := a / activityRescaleThreshold
		vo.activities[v] = scaled
		if vo.heap.Contains(v) {
			vo.heap.Put(v, -scaled)
		}
	}
}

// Reinsert makes v a branching candidate again after its assignment was
// undone.
func (vo *VarOrder) Reinsert(v Var) {
	if vo.ineligible[v] || vo.heap.Contains(int(v)) {
		return
	}
	vo.heap.Put(int(v), -vo.activities[v])
}

// SetEligible includes or excludes v from branching. Ineligible variables
// stay in the heap and are skipped when popped.
func (vo *VarOrder) SetEligible(v Var, eligible bool) {
	vo.ineligible[v] = !eligible
	if eligible && !vo.heap.Contains(int(v)) {
		vo.heap.Put(int(v), -vo.activities[v])
	}
}

// NextDecision pops the most active unassigned variable and returns its
// literal in the saved phase. ok is false when no candidate remains.
func (vo *VarOrder) NextDecision(assign *Assignment) (Literal, bool) {
	for {
		next, ok := vo.heap.Pop()
		if !ok {
			return 0, false
		}
		v := Var(next.Elem)
		if vo.ineligible[v] || assign.VarValue(v).Determinate() {
			continue
		}
		return LiteralOf(v, assign.Phase(v) == True), true
	}
}
