package macrodbg

import (
	stdcontext "context"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/expr"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// StepMode selects what Debugger's AfterStatement hook does once the
// next statement settles, mirroring the teacher's StepMode
// (debugger/debugger.go) but keyed on macro-call depth (Frame.Depth)
// rather than CPU call-stack depth.
type StepMode int

const (
	// StepNone runs until a breakpoint or watchpoint fires.
	StepNone StepMode = iota
	// StepInto pauses after the very next statement, descending into
	// any macro call it makes.
	StepInto
	// StepOver pauses after the next statement at the same frame depth
	// or shallower, running any macro call it makes to completion.
	StepOver
	// StepOut pauses once control returns to a frame shallower than
	// the one active when stepping began.
	StepOut
)

// Debugger ties a processing.Manager to breakpoint, watchpoint, and
// command-history state via Manager.AfterStatement, adapted from the
// teacher's Debugger (debugger/debugger.go). Protocol adapters (DAP)
// wrap this type; it has no transport of its own.
type Debugger struct {
	Manager     *processing.Manager
	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Eval        *expr.Evaluator

	StepMode      StepMode
	stepBaseDepth int

	LastCommand string
}

// NewDebugger wires a Debugger to mgr, installing the AfterStatement
// hook. c supplies the CA variable scope the watch-expression
// evaluator reads from. If mgr already carries an AfterStatement hook
// (e.g. engine.Prepare's symbol-index/statistics recording), this
// debugger's own hook is chained after it rather than replacing it, so
// a long-lived debug session keeps indexing and recording statistics
// while also being steppable and breakpointable.
func NewDebugger(mgr *processing.Manager, c *context.Context) *Debugger {
	d := &Debugger{
		Manager:     mgr,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Eval:        expr.NewEvaluator(c),
	}
	if existing := mgr.AfterStatement; existing != nil {
		mgr.AfterStatement = func(stmt *semantics.Statement, frame *context.Frame) bool {
			observed := existing(stmt, frame)
			return d.afterStatement(stmt, frame) || observed
		}
	} else {
		mgr.AfterStatement = d.afterStatement
	}
	return d
}

func sequenceLabel(stmt *semantics.Statement) string {
	if stmt.Label.Kind == semantics.LabelSequence {
		return stmt.Label.Text
	}
	return ""
}

// afterStatement is Manager.AfterStatement: it decides, once a
// statement has settled, whether Resume should suspend with
// SuspendBreakpoint.
func (d *Debugger) afterStatement(stmt *semantics.Statement, frame *context.Frame) bool {
	depth := frame.Depth()

	switch d.StepMode {
	case StepInto:
		d.StepMode = StepNone
		return true
	case StepOver:
		if depth <= d.stepBaseDepth {
			d.StepMode = StepNone
			return true
		}
	case StepOut:
		if depth < d.stepBaseDepth {
			d.StepMode = StepNone
			return true
		}
	}

	if bp := d.Breakpoints.Match(string(stmt.URI), stmt.Range.Start.Line, sequenceLabel(stmt)); bp != nil {
		if bp.Condition == "" {
			return true
		}
		ok, err := d.Eval.EvalB(bp.Condition)
		if err != nil {
			return true
		}
		return ok
	}

	if changed := d.Watchpoints.CheckAll(d.Eval); len(changed) > 0 {
		return true
	}

	return false
}

// Continue runs to completion, the next breakpoint/watchpoint, or
// cancellation.
func (d *Debugger) Continue(ctx stdcontext.Context) (processing.Suspension, error) {
	d.StepMode = StepNone
	return d.Manager.Resume(ctx)
}

// StepIntoOnce runs exactly one statement, descending into any macro call
// it makes.
func (d *Debugger) StepIntoOnce(ctx stdcontext.Context) (processing.Suspension, error) {
	d.StepMode = StepInto
	return d.Manager.Resume(ctx)
}

// StepOver runs until control returns to the current frame depth or
// shallower, without stopping inside a macro call made along the way.
func (d *Debugger) StepOver(ctx stdcontext.Context) (processing.Suspension, error) {
	d.StepMode = StepOver
	d.stepBaseDepth = d.Manager.CurrentFrame().Depth()
	return d.Manager.Resume(ctx)
}

// StepOut runs until control returns to a frame shallower than the
// current one, i.e. until the innermost macro call returns.
func (d *Debugger) StepOut(ctx stdcontext.Context) (processing.Suspension, error) {
	d.StepMode = StepOut
	d.stepBaseDepth = d.Manager.CurrentFrame().Depth()
	return d.Manager.Resume(ctx)
}
