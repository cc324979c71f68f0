// Package tui implements the terminal front end over macrodbg.Debugger,
// adapted from the teacher's debugger package (debugger/tui.go): a
// library a thin main package wires up, rather than a main package
// itself, the same way the teacher's debugger library is invoked from
// its own cmd/main.go's -tui flag. Both cmd/hlasmctl's "debug"
// subcommand and the standalone cmd/hlasmdbg binary construct a TUI
// from here.
package tui

import (
	stdcontext "context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/eclipse-che4z/hlasm-analyzer-go/dapmodel"
	"github.com/eclipse-che4z/hlasm-analyzer-go/engine"
	"github.com/eclipse-che4z/hlasm-analyzer-go/macrodbg"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// TUI is the terminal debugger front end, adapted from the teacher's
// debugger.TUI (debugger/tui.go). Panel layout and key bindings mirror
// the teacher's; register/memory/stack/disassembly panels are replaced
// by a source view, call-stack view, CA-variable view, and
// diagnostics view, since this debugger steps a macro-processing stack
// rather than a CPU.
type TUI struct {
	Session  *engine.Session
	Debugger *macrodbg.Debugger

	App   *tview.Application
	Pages *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	StackView       *tview.TextView
	VariablesView   *tview.TextView
	DiagnosticsView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	mainURI source.URI
	lines   []string
}

// NewTUI builds a TUI over an already-prepared (but not yet running)
// session and debugger. mainURI/text are the entry document, cached so
// SourceView can show the current line in context; nested macro/copy
// frames outside mainURI show only their location, since their text
// isn't cached here.
func NewTUI(sess *engine.Session, dbg *macrodbg.Debugger, mainURI source.URI, text string) *TUI {
	t := &TUI{
		Session:  sess,
		Debugger: dbg,
		App:      tview.NewApplication(),
		mainURI:  mainURI,
		lines:    strings.Split(text, "\n"),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Call Stack ")

	t.VariablesView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.VariablesView.SetBorder(true).SetTitle(" CA Variables ")

	t.DiagnosticsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DiagnosticsView.SetBorder(true).SetTitle(" Diagnostics ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints / Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command (help for a list) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.StackView, 0, 1, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.VariablesView, 0, 1, false).
		AddItem(t.DiagnosticsView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.refreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.Debugger.History.Add(cmd)
		t.executeCommand(cmd)
		t.CommandInput.SetText("")
	}
}

// Run starts the application event loop; it blocks until the user
// quits or the analysis finishes and is dismissed.
func (t *TUI) Run() error {
	t.refreshAll()
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// executeCommand parses and runs one debugger command, then refreshes
// every panel. Unlike the teacher's single ExecuteCommand entry point,
// commands here map directly onto macrodbg.Debugger's exported methods
// rather than a VM instruction set.
func (t *TUI) executeCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	ctx := stdcontext.Background()

	switch fields[0] {
	case "help", "h":
		t.writeOutput(helpText)

	case "continue", "c":
		susp, err := t.Debugger.Continue(ctx)
		t.reportSuspension(susp, err)

	case "step", "s":
		susp, err := t.Debugger.StepIntoOnce(ctx)
		t.reportSuspension(susp, err)

	case "next", "n":
		susp, err := t.Debugger.StepOver(ctx)
		t.reportSuspension(susp, err)

	case "finish", "out":
		susp, err := t.Debugger.StepOut(ctx)
		t.reportSuspension(susp, err)

	case "break", "b":
		t.cmdBreak(fields[1:])

	case "watch", "w":
		if len(fields) < 2 {
			t.writeOutput("[red]usage: watch <expression>[white]\n")
			break
		}
		wp := t.Debugger.Watchpoints.Add(strings.Join(fields[1:], " "))
		t.writeOutput(fmt.Sprintf("watchpoint %d set on %s\n", wp.ID, wp.Expression))

	case "print", "p":
		if len(fields) < 2 {
			t.writeOutput("[red]usage: print <expression>[white]\n")
			break
		}
		value, err := t.Debugger.Eval.EvalC(strings.Join(fields[1:], " "))
		if err != nil {
			t.writeOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
			break
		}
		t.writeOutput(fmt.Sprintf("%s\n", value))

	case "delete", "d":
		t.cmdDelete(fields[1:])

	case "quit", "q":
		t.App.Stop()
		return

	default:
		t.writeOutput(fmt.Sprintf("[red]unknown command:[white] %s (try help)\n", fields[0]))
	}

	t.refreshAll()
}

const helpText = `commands:
  continue, c            run to the next breakpoint/watchpoint or completion
  step, s                step into the next statement
  next, n                step over the next statement
  finish, out            run until the current macro call returns
  break, b <line> [cond] set a line breakpoint in the main source, optionally conditional
  break, b .seq          set a breakpoint on sequence symbol .seq
  watch, w <expr>        watch a CA expression for value changes
  print, p <expr>        evaluate a CA expression
  delete, d bp <id>      delete breakpoint <id>
  delete, d wp <id>      delete watchpoint <id>
  quit, q                exit
`

func (t *TUI) cmdBreak(args []string) {
	if len(args) == 0 {
		t.writeOutput("[red]usage: break <line> [cond] | break .seqsymbol[white]\n")
		return
	}
	if strings.HasPrefix(args[0], ".") {
		bp := t.Debugger.Breakpoints.AddSequence(args[0], false, strings.Join(args[1:], " "))
		t.writeOutput(fmt.Sprintf("breakpoint %d set on sequence symbol %s\n", bp.ID, bp.SeqSymbol))
		return
	}
	line, err := strconv.Atoi(args[0])
	if err != nil {
		t.writeOutput(fmt.Sprintf("[red]invalid line:[white] %s\n", args[0]))
		return
	}
	bp := t.Debugger.Breakpoints.AddLine(string(t.mainURI), line-1, false, strings.Join(args[1:], " "))
	t.writeOutput(fmt.Sprintf("breakpoint %d set at line %d\n", bp.ID, line))
}

func (t *TUI) cmdDelete(args []string) {
	if len(args) != 2 {
		t.writeOutput("[red]usage: delete bp <id> | delete wp <id>[white]\n")
		return
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		t.writeOutput(fmt.Sprintf("[red]invalid id:[white] %s\n", args[1]))
		return
	}
	switch args[0] {
	case "bp":
		if err := t.Debugger.Breakpoints.Delete(id); err != nil {
			t.writeOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
			return
		}
		t.writeOutput(fmt.Sprintf("breakpoint %d deleted\n", id))
	case "wp":
		if err := t.Debugger.Watchpoints.Delete(id); err != nil {
			t.writeOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
			return
		}
		t.writeOutput(fmt.Sprintf("watchpoint %d deleted\n", id))
	default:
		t.writeOutput("[red]usage: delete bp <id> | delete wp <id>[white]\n")
	}
}

func (t *TUI) reportSuspension(susp processing.Suspension, err error) {
	if err != nil {
		t.writeOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
		return
	}
	t.writeOutput(fmt.Sprintf("stopped: %s\n", suspensionName(susp)))
}

func suspensionName(s processing.Suspension) string {
	switch s {
	case processing.SuspendFinished:
		return "finished"
	case processing.SuspendBudget:
		return "budget"
	case processing.SuspendCancelled:
		return "cancelled"
	case processing.SuspendBreakpoint:
		return "breakpoint"
	default:
		return "unknown"
	}
}

func (t *TUI) writeOutput(text string) {
	fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

func (t *TUI) refreshAll() {
	t.updateSourceView()
	t.updateStackView()
	t.updateVariablesView()
	t.updateDiagnosticsView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateSourceView() {
	t.SourceView.Clear()
	frame := t.Session.Manager.CurrentFrame()
	cur := frame.Position.Line

	if frame.URI != t.mainURI {
		fmt.Fprintf(t.SourceView, "[yellow]inside %s (line %d), source not cached[white]\n", frame.URI, cur+1)
		return
	}

	start := cur - 8
	if start < 0 {
		start = 0
	}
	end := cur + 12
	if end > len(t.lines) {
		end = len(t.lines)
	}
	for i := start; i < end; i++ {
		marker := "  "
		color := "white"
		if i == cur {
			marker = "->"
			color = "yellow"
		}
		fmt.Fprintf(t.SourceView, "[%s]%s %4d: %s[white]\n", color, marker, i+1, t.lines[i])
	}
}

func (t *TUI) updateStackView() {
	t.StackView.Clear()
	frames := dapmodel.StackTrace(t.Session.Manager.CurrentFrame())
	for _, f := range frames {
		fmt.Fprintf(t.StackView, "#%d %s (%s:%d)\n", f.ID, f.Name, f.URI, f.Line)
	}
}

func (t *TUI) updateVariablesView() {
	t.VariablesView.Clear()
	fmt.Fprintln(t.VariablesView, "[::b]Locals[::-]")
	for _, v := range dapmodel.Variables(t.Session.Ctx.Scopes, 1) {
		fmt.Fprintf(t.VariablesView, "  &%s (%s) = %s\n", v.Name, v.Type, v.Value)
	}
	fmt.Fprintln(t.VariablesView, "[::b]Globals[::-]")
	for _, v := range dapmodel.Variables(t.Session.Ctx.Scopes, 2) {
		fmt.Fprintf(t.VariablesView, "  &%s (%s) = %s\n", v.Name, v.Type, v.Value)
	}
}

func (t *TUI) updateDiagnosticsView() {
	t.DiagnosticsView.Clear()
	diags := t.Session.Diagnostics()
	if len(diags) == 0 {
		fmt.Fprintln(t.DiagnosticsView, "(none)")
		return
	}
	for _, d := range diags {
		fmt.Fprintf(t.DiagnosticsView, "%s:%d: %s: %s [%s]\n",
			d.URI, d.Range.Start.Line+1, d.Severity, d.Message, d.Code)
	}
}

func (t *TUI) updateBreakpointsView() {
	t.BreakpointsView.Clear()
	for _, bp := range t.Debugger.Breakpoints.All() {
		loc := fmt.Sprintf("%s:%d", bp.URI, bp.Line+1)
		if bp.SeqSymbol != "" {
			loc = bp.SeqSymbol
		}
		fmt.Fprintf(t.BreakpointsView, "bp %d %s hits=%d%s\n", bp.ID, loc, bp.HitCount, condSuffix(bp.Condition))
	}
	for _, wp := range t.Debugger.Watchpoints.All() {
		fmt.Fprintf(t.BreakpointsView, "wp %d %s = %s hits=%d\n", wp.ID, wp.Expression, wp.LastValue, wp.HitCount)
	}
}

func condSuffix(cond string) string {
	if cond == "" {
		return ""
	}
	return fmt.Sprintf(" if %s", cond)
}
