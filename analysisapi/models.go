package analysisapi

import (
	"time"

	"github.com/eclipse-che4z/hlasm-analyzer-go/dapmodel"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
)

// SessionCreateRequest is the body of POST /api/v1/session: a source
// document to analyze, optionally paired with library search
// directories for COPY/macro autocall (§4.12).
type SessionCreateRequest struct {
	URI         string   `json:"uri"`
	Source      string   `json:"source"`
	LibraryDirs []string `json:"libraryDirs,omitempty"`
}

// SessionCreateResponse is the response from creating a session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse reports a session's current run state.
type SessionStatusResponse struct {
	SessionID  string `json:"sessionId"`
	Suspension string `json:"suspension"`
	Statements int    `json:"statements"`
}

// DiagnosticDTO is the JSON shape of a diag.Diagnostic.
type DiagnosticDTO struct {
	URI      string `json:"uri"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ToDiagnosticDTO converts one diagnostic for JSON transport.
func ToDiagnosticDTO(d diag.Diagnostic) DiagnosticDTO {
	return DiagnosticDTO{
		URI:      string(d.URI),
		Line:     d.Range.Start.Line,
		Column:   d.Range.Start.Column,
		Code:     string(d.Code),
		Severity: d.Severity.String(),
		Message:  d.Message,
	}
}

// DiagnosticsResponse is the response from GET .../diagnostics.
type DiagnosticsResponse struct {
	Diagnostics []DiagnosticDTO `json:"diagnostics"`
}

// BreakpointRequest is the body of POST .../breakpoint: exactly one of
// Line or SeqSymbol identifies where to stop.
type BreakpointRequest struct {
	URI       string `json:"uri,omitempty"`
	Line      int    `json:"line,omitempty"`
	SeqSymbol string `json:"seqSymbol,omitempty"`
	Temporary bool   `json:"temporary,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// BreakpointsResponse lists the breakpoints active in a session.
type BreakpointsResponse struct {
	Breakpoints []dapmodel.BreakpointDTO `json:"breakpoints"`
}

// WatchpointRequest is the body of POST .../watchpoint.
type WatchpointRequest struct {
	Expression string `json:"expression"`
}

// WatchpointsResponse lists the watchpoints active in a session.
type WatchpointsResponse struct {
	Watchpoints []dapmodel.WatchpointDTO `json:"watchpoints"`
}

// StackTraceResponse is the response from GET .../stacktrace.
type StackTraceResponse struct {
	Frames []dapmodel.StackFrame `json:"frames"`
}

// ScopesResponse is the response from GET .../scopes.
type ScopesResponse struct {
	Scopes []dapmodel.Scope `json:"scopes"`
}

// VariablesResponse is the response from GET .../variables.
type VariablesResponse struct {
	Variables []dapmodel.Variable `json:"variables"`
}

// EvaluateRequest is the body of POST .../evaluate: a CA expression
// evaluated against the session's current variable scope.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is the textual result of evaluating a CA expression.
type EvaluateResponse struct {
	Value string `json:"value"`
}

// ErrorResponse is a uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SuccessResponse is a uniform simple-success body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
