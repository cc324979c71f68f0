package macrodbg

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/expr"
)

// Watchpoint monitors a CA expression (typically a single SETA/SETB/SETC
// variable, but any expression the evaluator accepts) and triggers when
// its textual value changes between statements. Mirrors the teacher's
// value-change-detection Watchpoint (debugger/watchpoints.go); there is
// no register/memory distinction here, so the Type/IsRegister/Register
// fields the teacher carries have no counterpart.
type Watchpoint struct {
	ID         int
	Expression string
	Enabled    bool
	LastValue  string
	HasValue   bool
	HitCount   int
}

// WatchpointManager manages all watchpoints for one debug session.
type WatchpointManager struct {
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager creates an empty watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// Add adds a new watchpoint on a CA expression.
func (wm *WatchpointManager) Add(expression string) *Watchpoint {
	wp := &Watchpoint{ID: wm.nextID, Expression: expression, Enabled: true}
	wm.watchpoints[wp.ID] = wp
	wm.nextID++
	return wp
}

// Delete removes a watchpoint by ID.
func (wm *WatchpointManager) Delete(id int) error {
	if _, ok := wm.watchpoints[id]; !ok {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(wm.watchpoints, id)
	return nil
}

// Enable enables a watchpoint by ID.
func (wm *WatchpointManager) Enable(id int) error { return wm.setEnabled(id, true) }

// Disable disables a watchpoint by ID.
func (wm *WatchpointManager) Disable(id int) error { return wm.setEnabled(id, false) }

func (wm *WatchpointManager) setEnabled(id int, enabled bool) error {
	wp, ok := wm.watchpoints[id]
	if !ok {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	wp.Enabled = enabled
	return nil
}

// All returns every watchpoint, in no particular order.
func (wm *WatchpointManager) All() []*Watchpoint {
	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}
	return result
}

// Clear removes all watchpoints.
func (wm *WatchpointManager) Clear() { wm.watchpoints = make(map[int]*Watchpoint) }

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int { return len(wm.watchpoints) }

// evalText evaluates a CA expression to its textual value, trying the
// arithmetic and boolean evaluators before falling back to EvalC, so a
// watch on a SETA or SETB symbol still produces a comparable string.
func evalText(e *expr.Evaluator, expression string) (string, error) {
	if v, err := e.EvalA(expression); err == nil {
		return fmt.Sprintf("%d", v), nil
	}
	if v, err := e.EvalB(expression); err == nil {
		return fmt.Sprintf("%t", v), nil
	}
	return e.EvalC(expression)
}

// CheckAll evaluates every enabled watchpoint and returns those whose
// value changed since the last check, updating LastValue and HitCount
// as it goes. Evaluation errors (e.g. an undefined variable before its
// first SETx) are treated as "no change yet", matching the teacher's
// CheckWatchpoints skip-on-read-failure behavior.
func (wm *WatchpointManager) CheckAll(e *expr.Evaluator) []*Watchpoint {
	var changed []*Watchpoint
	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}
		value, err := evalText(e, wp.Expression)
		if err != nil {
			continue
		}
		if !wp.HasValue {
			wp.LastValue = value
			wp.HasValue = true
			continue
		}
		if value != wp.LastValue {
			wp.LastValue = value
			wp.HitCount++
			changed = append(changed, wp)
		}
	}
	return changed
}
