package analysisapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(0)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthReportsSessionCount(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestCreateSessionThenFetchDiagnostics(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session", SessionCreateRequest{
		URI:    "t://prog.hlasm",
		Source: "         START 0\n         LR   20,2\n         END\n",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created SessionCreateResponse
	decode(t, resp, &created)
	require.NotEmpty(t, created.SessionID)

	resp, err := http.Post(ts.URL+"/api/v1/session/"+created.SessionID+"/continue", "application/json", nil)
	require.NoError(t, err)
	var status SessionStatusResponse
	decode(t, resp, &status)
	assert.Equal(t, "finished", status.Suspension)

	resp, err = http.Get(ts.URL + "/api/v1/session/" + created.SessionID + "/diagnostics")
	require.NoError(t, err)
	var diags DiagnosticsResponse
	decode(t, resp, &diags)
	require.NotEmpty(t, diags.Diagnostics, "invalid register operand should raise a machine-check diagnostic")
}

func TestBreakpointLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session", SessionCreateRequest{
		URI:    "t://prog.hlasm",
		Source: "         START 0\n         LR   1,2\n         END\n",
	})
	var created SessionCreateResponse
	decode(t, resp, &created)

	resp = postJSON(t, ts.URL+"/api/v1/session/"+created.SessionID+"/breakpoint", BreakpointRequest{
		URI:  "t://prog.hlasm",
		Line: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/api/v1/session/" + created.SessionID + "/breakpoints")
	require.NoError(t, err)
	var list BreakpointsResponse
	decode(t, resp, &list)
	require.Len(t, list.Breakpoints, 1)
	assert.Equal(t, 1, list.Breakpoints[0].Line)
}

func TestScopesListsGlobalAndLocalVariableScopes(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session", SessionCreateRequest{
		URI:    "t://prog.hlasm",
		Source: "         START 0\n         LR   1,2\n         END\n",
	})
	var created SessionCreateResponse
	decode(t, resp, &created)

	resp, err := http.Get(ts.URL + "/api/v1/session/" + created.SessionID + "/scopes")
	require.NoError(t, err)
	var scopes ScopesResponse
	decode(t, resp, &scopes)
	assert.NotEmpty(t, scopes.Scopes, "a session always has at least a global CA-variable scope")
}

func TestDestroyedSessionReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session", SessionCreateRequest{URI: "t://a.hlasm", Source: "         END\n"})
	var created SessionCreateResponse
	decode(t, resp, &created)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/session/"+created.SessionID, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/session/" + created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
