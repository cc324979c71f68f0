package analysisapi

import (
	"net/http"

	"github.com/eclipse-che4z/hlasm-analyzer-go/dapmodel"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
)

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

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.sessions.CreateSession(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{SessionID: session.ID, CreatedAt: session.CreatedAt})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids, "count": len(ids)})
}

func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID:  sessionID,
		Statements: int(session.Engine.Ctx.StatementCount),
	})
}

func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "session destroyed"})
}

// runAndReport drives step/continue through the session's debugger,
// broadcasts a stopped/output notification, and replies with the
// resulting status. Every stepping endpoint shares this tail.
func (s *Server) runAndReport(w http.ResponseWriter, r *http.Request, sessionID string, step func(*Session) (processing.Suspension, error)) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	suspension, err := step(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.broadcaster.BroadcastDiagnostics(sessionID, len(session.Engine.Diagnostics()))
	if suspension == processing.SuspendBreakpoint {
		s.broadcaster.BroadcastStopped(sessionID, "breakpoint")
	}

	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID:  sessionID,
		Suspension: suspensionName(suspension),
		Statements: int(session.Engine.Ctx.StatementCount),
	})
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runAndReport(w, r, sessionID, func(sess *Session) (processing.Suspension, error) {
		return sess.Continue(r.Context())
	})
}

func (s *Server) handleStepInto(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runAndReport(w, r, sessionID, func(sess *Session) (processing.Suspension, error) {
		return sess.StepInto(r.Context())
	})
}

func (s *Server) handleStepOver(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runAndReport(w, r, sessionID, func(sess *Session) (processing.Suspension, error) {
		return sess.StepOver(r.Context())
	})
}

func (s *Server) handleStepOut(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runAndReport(w, r, sessionID, func(sess *Session) (processing.Suspension, error) {
		return sess.StepOut(r.Context())
	})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	diags := session.Engine.Diagnostics()
	out := make([]DiagnosticDTO, len(diags))
	for i, d := range diags {
		out[i] = ToDiagnosticDTO(d)
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Diagnostics: out})
}

func (s *Server) handleStackTrace(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	frame := session.Engine.Manager.CurrentFrame()
	writeJSON(w, http.StatusOK, StackTraceResponse{Frames: dapmodel.StackTrace(frame)})
}

func (s *Server) handleScopes(w http.ResponseWriter, r *http.Request, sessionID string) {
	if _, err := s.sessions.GetSession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, ScopesResponse{Scopes: dapmodel.Scopes()})
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	scopeRef := 1
	if q := r.URL.Query().Get("scope"); q != "" {
		if n, err := parseIntID(q); err == nil {
			scopeRef = n
		}
	}
	writeJSON(w, http.StatusOK, VariablesResponse{
		Variables: dapmodel.Variables(session.Engine.Ctx.Scopes, scopeRef),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req EvaluateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	value, err := session.Debugger.Eval.EvalC(req.Expression)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Value: value})
}

func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bm := session.Debugger.Breakpoints
	var bp dapmodel.BreakpointDTO
	if req.SeqSymbol != "" {
		bp = dapmodel.ToBreakpointDTO(bm.AddSequence(req.SeqSymbol, req.Temporary, req.Condition))
	} else {
		bp = dapmodel.ToBreakpointDTO(bm.AddLine(req.URI, req.Line, req.Temporary, req.Condition))
	}

	writeJSON(w, http.StatusCreated, bp)
}

func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	all := session.Debugger.Breakpoints.All()
	out := make([]dapmodel.BreakpointDTO, len(all))
	for i, bp := range all {
		out[i] = dapmodel.ToBreakpointDTO(bp)
	}
	writeJSON(w, http.StatusOK, BreakpointsResponse{Breakpoints: out})
}

func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string, idText string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	id, err := parseIntID(idText)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid breakpoint ID")
		return
	}
	if err := session.Debugger.Breakpoints.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req WatchpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wp := session.Debugger.Watchpoints.Add(req.Expression)
	writeJSON(w, http.StatusCreated, dapmodel.ToWatchpointDTO(wp))
}

func (s *Server) handleListWatchpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	all := session.Debugger.Watchpoints.All()
	out := make([]dapmodel.WatchpointDTO, len(all))
	for i, wp := range all {
		out[i] = dapmodel.ToWatchpointDTO(wp)
	}
	writeJSON(w, http.StatusOK, WatchpointsResponse{Watchpoints: out})
}

func (s *Server) handleDeleteWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string, idText string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	id, err := parseIntID(idText)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid watchpoint ID")
		return
	}
	if err := session.Debugger.Watchpoints.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
