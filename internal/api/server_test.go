package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guide = `# Guide

## Install

### Linux

## Usage
`

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.WorkerCount = 1
	cfg.MaxQueueSize = 4
	if mutate != nil {
		mutate(&cfg)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, session.NewStore(cfg.SessionTTL), log, cfg)
}

func do(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" })

	rec := do(t, s, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats?token=secret", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNav_RawBody(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/nav?filename=guide.md", strings.NewReader(guide))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[navResponse](t, rec)
	assert.Equal(t, "guide", resp.Title)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "nav-install", resp.Entries[0].ID)
	assert.Equal(t, "install", resp.Entries[0].HeadingID)
	require.Len(t, resp.Entries[0].Children, 1)
	assert.Equal(t, "Linux", resp.Entries[0].Children[0].Label)
	assert.Equal(t, "nav-usage", resp.Entries[1].ID)
	assert.Empty(t, resp.Warnings)
}

func TestNav_Multipart(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../../page.html")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`<html><body><div id="jd-content"><h2>One</h2><h2>One</h2></div></body></html>`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/nav", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[navResponse](t, rec)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "nav-one", resp.Entries[0].ID)
	assert.Equal(t, "nav-one-1", resp.Entries[1].ID)
	assert.NotEmpty(t, resp.Warnings)
}

func TestNav_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/nav", strings.NewReader(guide))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/nav?filename=notes.txt", strings.NewReader("hi"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	small := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 8 })
	rec = do(t, small, http.MethodPost, "/api/nav?filename=guide.md", strings.NewReader(guide))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRender(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/render?filename=guide.md", strings.NewReader(guide))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `id="doc-nav"`)
	assert.Contains(t, body, `id="nav-install"`)
	assert.Contains(t, body, `href="#install"`)

	rec = do(t, s, http.MethodPost, "/api/render?filename=guide.pdf", strings.NewReader("%PDF"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTOC(t *testing.T) {
	s := newTestServer(t, nil)
	fragment := `<ul id="nav">
  <li class="nav-section">
    <div class="nav-section-header"><a href="<?cs var:toroot ?>devices/index.html"><span class="en">Interfaces</span></a></div>
    <ul>
      <li><a href="<?cs var:toroot ?>devices/audio.html">Audio</a></li>
    </ul>
  </li>
</ul>`

	rec := do(t, s, http.MethodPost, "/api/toc?root=/docs/&active=/docs/devices/audio.html", strings.NewReader(fragment))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Entries []struct {
			Title string `json:"title"`
			Href  string `json:"href"`
		} `json:"entries"`
		Trail []string `json:"trail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "/docs/devices/index.html", resp.Entries[0].Href)
	assert.Equal(t, []string{"Interfaces", "Audio"}, resp.Trail)

	rec = do(t, s, http.MethodPost, "/api/toc", strings.NewReader("<p>no list</p>"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBuild(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/build?filename=guide.md&title=Handbook", strings.NewReader(guide))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobID := decode[map[string]string](t, rec)["job_id"]
	require.NotEmpty(t, jobID)

	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, "/api/build/"+jobID+"/status", nil)
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &snap) != nil {
			return false
		}
		return snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.Equal(t, 3, snap.Progress.Entries)

	rec = do(t, s, http.MethodGet, "/api/build/"+jobID+"/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="nav-linux"`)

	rec = do(t, s, http.MethodGet, "/api/build/"+jobID+"/result?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[navResponse](t, rec)
	assert.Equal(t, "Handbook", resp.Title)
	assert.Len(t, resp.Entries, 2)

	rec = do(t, s, http.MethodGet, "/api/build/missing/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions?filename=guide.md", strings.NewReader(guide))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[createSessionResponse](t, rec)
	require.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Entries, 2)
	return resp.SessionID
}

func TestSession_LayoutSelectionScroll(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s)
	base := "/api/sessions/" + id

	layout := `{"offsets":{"install":100,"linux":300,"usage":800}}`
	rec := do(t, s, http.MethodPut, base+"/layout", strings.NewReader(layout))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[layoutResponse](t, rec).Positions, 3)

	cases := []struct {
		offset   string
		selected string
		changed  bool
	}{
		{"50", "", false},
		{"100", "nav-install", true},
		{"299", "nav-install", false},
		{"450", "nav-linux", true},
		{"5000", "nav-usage", true},
	}
	for _, tc := range cases {
		rec := do(t, s, http.MethodGet, base+"/selection?offset="+tc.offset, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[selectionResponse](t, rec)
		assert.Equal(t, tc.selected, got.Selected, "offset %s", tc.offset)
		assert.Equal(t, tc.changed, got.Changed, "offset %s", tc.offset)
	}

	rec = do(t, s, http.MethodGet, base+"/scroll?target=nav-linux&from=900", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sc := decode[scrollResponse](t, rec)
	assert.Equal(t, scrollResponse{From: 900, To: 300, DurationMS: 400, Fragment: "linux"}, sc)

	rec = do(t, s, http.MethodGet, base+"/scroll?target=nav-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/selection?offset=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, base+"/selection?offset=1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_Events(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s)

	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(ev Event) {
		require.NoError(t, conn.WriteJSON(ev))
	}
	recv := func() Reply {
		var r Reply
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&r))
		return r
	}

	send(Event{Type: "resize", Offsets: map[string]float64{"install": 100, "linux": 300, "usage": 800}})
	assert.Equal(t, Reply{Type: "layout", Positions: 3}, recv())

	send(Event{Type: "scroll", Offset: 120})
	assert.Equal(t, Reply{Type: "select", Selected: "nav-install"}, recv())

	// Same selection: no reply, so the next reply belongs to the click.
	send(Event{Type: "scroll", Offset: 150})
	send(Event{Type: "click", Target: "nav-usage", Offset: 150})
	r := recv()
	assert.Equal(t, "scroll", r.Type)
	require.NotNil(t, r.Scroll)
	assert.Equal(t, scrollResponse{From: 150, To: 800, DurationMS: 400, Fragment: "usage"}, *r.Scroll)

	send(Event{Type: "click", Target: "nav-nowhere"})
	assert.Equal(t, "error", recv().Type)

	send(Event{Type: "zoom"})
	assert.Equal(t, "error", recv().Type)
}

func dialEvents(t *testing.T, s *Server, id string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSession_EventsEmptyValuesOnWire(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s)
	conn := dialEvents(t, s, id)

	recvRaw := func() string {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		return string(data)
	}

	require.NoError(t, conn.WriteJSON(Event{Type: "resize", Offsets: map[string]float64{"install": 100, "linux": 300, "usage": 800}}))
	assert.Contains(t, recvRaw(), `"positions":3`)

	require.NoError(t, conn.WriteJSON(Event{Type: "scroll", Offset: 120}))
	assert.Contains(t, recvRaw(), `"selected":"nav-install"`)

	// Scrolling back above the first heading clears the selection.
	require.NoError(t, conn.WriteJSON(Event{Type: "scroll", Offset: 10}))
	assert.JSONEq(t, `{"type":"select","positions":0,"selected":""}`, recvRaw())

	// A layout with none of the headings still reports its size.
	require.NoError(t, conn.WriteJSON(Event{Type: "resize", Offsets: map[string]float64{}}))
	assert.JSONEq(t, `{"type":"layout","positions":0,"selected":""}`, recvRaw())
}

func TestSession_EventsKeepalive(t *testing.T) {
	s := newTestServer(t, nil)
	s.eventIdle = 150 * time.Millisecond
	s.pingPeriod = 40 * time.Millisecond
	id := createSession(t, s)
	conn := dialEvents(t, s, id)

	var pings atomic.Int32
	conn.SetPingHandler(func(data string) error {
		pings.Add(1)
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	// Reading runs the ping handler; replies are forwarded to the test.
	replies := make(chan Reply, 4)
	go func() {
		defer close(replies)
		for {
			var r Reply
			if err := conn.ReadJSON(&r); err != nil {
				return
			}
			replies <- r
		}
	}()

	require.NoError(t, conn.WriteJSON(Event{Type: "resize", Offsets: map[string]float64{"install": 100, "usage": 800}}))
	select {
	case r := <-replies:
		assert.Equal(t, Reply{Type: "layout", Positions: 2}, r)
	case <-time.After(5 * time.Second):
		t.Fatal("no layout reply")
	}

	// Stay silent for several idle timeouts.
	time.Sleep(4 * s.eventIdle)
	assert.GreaterOrEqual(t, pings.Load(), int32(3))

	require.NoError(t, conn.WriteJSON(Event{Type: "scroll", Offset: 120}))
	select {
	case r, ok := <-replies:
		require.True(t, ok, "connection dropped while answering pings")
		assert.Equal(t, Reply{Type: "select", Selected: "nav-install"}, r)
	case <-time.After(5 * time.Second):
		t.Fatal("no select reply")
	}
}

func TestSession_EventsIdleClientDropped(t *testing.T) {
	s := newTestServer(t, nil)
	s.eventIdle = 100 * time.Millisecond
	s.pingPeriod = time.Hour
	id := createSession(t, s)
	conn := dialEvents(t, s, id)

	time.Sleep(3 * s.eventIdle)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "server should close the idle socket")
	}
}

func TestSession_EventsUnknownSession(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/missing/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)
	createSession(t, s)
	rec := do(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]int](t, rec)
	assert.Equal(t, 1, stats["sessions"])
	assert.Contains(t, stats, "queue_depth")
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"guide.md":         "guide.md",
		"../../etc/passwd": "passwd",
		"a..b.md":          "a_b.md",
		"":                 "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
