package handler

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
	"competencymap/internal/hub"
	"competencymap/internal/service"
)

// newEventsServer mounts the SSE hub behind the session middleware and
// forwards service events to it, as the serve command does
func newEventsServer(t *testing.T, env *testEnv, bus *service.EventBus) (*hub.Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	sseHub := hub.New(zap.NewNop())
	go sseHub.Run(ctx)

	events := make(chan service.Event, 16)
	bus.Subscribe(events)
	go func() {
		for {
			select {
			case ev := <-events:
				sseHub.Broadcast(ev)
			case <-ctx.Done():
				return
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("GET /events", sseHub)
	srv := httptest.NewServer(Chain(mux, Session(env.auth, nil)))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return sseHub, srv
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	bus := service.NewEventBus()
	svc := service.NewMappingService(env.store, env.store, env.store, service.Options{EventBus: bus})
	sseHub, srv := newEventsServer(t, env, bus)

	t.Run("anonymous", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/events")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("only visible contexts", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/events", nil)
		require.NoError(t, err)
		withBearer(req, env.token(t, map[string][]string{"15": {auth.CapViewAll}}))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Eventually(t, func() bool { return sseHub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

		ctx := context.Background()
		require.NoError(t, svc.SetCompetencyForQuestion(ctx, 43, 8)) // context 16
		require.NoError(t, svc.SetCompetencyForQuestion(ctx, 42, 7)) // context 15

		lines := make(chan string, 8)
		go func() {
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
					lines <- line
				}
			}
		}()

		select {
		case line := <-lines:
			assert.Contains(t, line, `"question_id":42`)
			assert.NotContains(t, line, `"question_id":43`)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	})
}
