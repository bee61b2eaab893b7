package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"competencymap/internal/auth"
	"competencymap/internal/service"
)

func newSession(t *testing.T, caps map[string][]string) *auth.Session {
	t.Helper()
	a, err := auth.New("hub-test-secret-0123456789", "competencymap", "competencymap_session", time.Hour)
	require.NoError(t, err)
	token, err := a.Issue("user-1", caps)
	require.NoError(t, err)
	s, err := a.Parse(token)
	require.NoError(t, err)
	return s
}

// serveAs attaches session (nil for anonymous) the way the session
// middleware does
func serveAs(h *Hub, session *auth.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session != nil {
			r = r.WithContext(auth.WithSession(r.Context(), session))
		}
		h.ServeHTTP(w, r)
	})
}

func startHub(t *testing.T, session *auth.Session) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := New(zap.NewNop())
	go h.Run(ctx)

	srv := httptest.NewServer(serveAs(h, session))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, srv
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case res := <-ch:
		require.NoError(t, res.err)
		return strings.TrimRight(res.line, "\n")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SSE line")
		return ""
	}
}

// connect opens a stream and waits until the hub has registered it
func connect(t *testing.T, h *Hub, srv *httptest.Server) *bufio.Reader {
	t.Helper()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, ": connected", readLine(t, reader))
	readLine(t, reader)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	return reader
}

func mappingSet(questionID, competencyID, contextID int64) service.Event {
	return service.Event{
		Type:    service.EventMappingSet,
		Payload: service.MappingEventPayload{QuestionID: questionID, CompetencyID: competencyID, ContextID: contextID},
	}
}

func TestAnonymousStreamRejected(t *testing.T) {
	h, srv := startHub(t, nil)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, h.ClientCount())
}

func TestBroadcastReachesClient(t *testing.T) {
	h, srv := startHub(t, newSession(t, map[string][]string{"15": {auth.CapViewAll}}))
	reader := connect(t, h, srv)

	h.Broadcast(mappingSet(42, 7, 15))

	assert.Equal(t, `data: {"type":"mapping_set","payload":{"question_id":42,"competency_id":7,"context_id":15}}`, readLine(t, reader))
}

func TestBroadcastFiltersByContext(t *testing.T) {
	h, srv := startHub(t, newSession(t, map[string][]string{"15": {auth.CapEditAll}}))
	reader := connect(t, h, srv)

	// Context 16 is not visible to the session; only the second event arrives
	h.Broadcast(mappingSet(43, 8, 16))
	h.Broadcast(mappingSet(42, 7, 15))

	assert.Equal(t, `data: {"type":"mapping_set","payload":{"question_id":42,"competency_id":7,"context_id":15}}`, readLine(t, reader))
}

func TestUnscopedEventsReachEverySession(t *testing.T) {
	h, srv := startHub(t, newSession(t, nil))
	reader := connect(t, h, srv)

	h.Broadcast(mappingSet(42, 7, 15))
	h.Broadcast(map[string]string{"type": "ping"})

	assert.Equal(t, `data: {"type":"ping"}`, readLine(t, reader))
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h, srv := startHub(t, newSession(t, nil))

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	resp.Body.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRunClosesStreamsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil)
	go h.Run(ctx)

	srv := httptest.NewServer(serveAs(h, newSession(t, nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-h.done
	assert.Equal(t, 0, h.ClientCount())
}
