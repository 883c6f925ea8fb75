package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/app/share"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu       sync.Mutex
	shared   []string
	chats    []string
	screens  int
	stops    int
	audio    bool
	leaves   int
	done     chan struct{}
	shareErr error
	chatErr  error
}

func newFakeController() *fakeController {
	return &fakeController{audio: true, done: make(chan struct{})}
}

func (f *fakeController) Snapshot() orch.Snapshot {
	return orch.Snapshot{SessionID: "sid", Room: "R", Name: "Alice", ShareMode: "idle"}
}

func (f *fakeController) ShareURL(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shareErr != nil {
		return f.shareErr
	}
	f.shared = append(f.shared, raw)
	return nil
}

func (f *fakeController) StartScreenShare(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screens++
	return nil
}

func (f *fakeController) StopSharing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeController) SendChat(body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chatErr != nil {
		return f.chatErr
	}
	f.chats = append(f.chats, body)
	return nil
}

func (f *fakeController) ToggleAudio() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = !f.audio
	return f.audio, nil
}

func (f *fakeController) ToggleVideo() (bool, error) {
	return false, core.ErrSessionClosed
}

func (f *fakeController) Leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	if f.leaves == 1 {
		close(f.done)
	}
}

func (f *fakeController) Done() <-chan struct{} { return f.done }

func newRouter(ctrl Controller, bus *Broadcaster) http.Handler {
	cfg := &config.Config{Mode: "release"}
	stats := func() []rtc.FeedStats {
		return []rtc.FeedStats{{TrackID: "v1", StreamID: "s1", Packets: 3}}
	}
	return SetupRouter(cfg, ctrl, bus, stats)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestState(t *testing.T) {
	r := newRouter(newFakeController(), NewBroadcaster(8))

	w := do(t, r, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap orch.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, domain.RoomID("R"), snap.Room)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, r, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stream_id":"s1"`)
}

func TestShare(t *testing.T) {
	ctrl := newFakeController()
	r := newRouter(ctrl, NewBroadcaster(8))

	w := do(t, r, http.MethodPost, "/api/share", `{"url":" https://youtu.be/dQw4w9WgXcQ "}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"https://youtu.be/dQw4w9WgXcQ"}, ctrl.shared)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/share", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/share", `not json`).Code)

	ctrl.shareErr = share.ErrAlreadySharing
	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPost, "/api/share", `{"url":"https://a.example/x.mp4"}`).Code)
	ctrl.shareErr = share.ErrInvalidShareURL
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/share", `{"url":"ftp://nope"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/share/screen", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/api/share", "").Code)
	assert.Equal(t, 1, ctrl.screens)
	assert.Equal(t, 1, ctrl.stops)
}

func TestChat(t *testing.T) {
	ctrl := newFakeController()
	r := newRouter(ctrl, NewBroadcaster(8))

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/chat", `{"body":"hi"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/chat", `{"body":"   "}`).Code)
	assert.Equal(t, []string{"hi"}, ctrl.chats)

	ctrl.chatErr = signal.ErrRateLimited
	assert.Equal(t, http.StatusTooManyRequests, do(t, r, http.MethodPost, "/api/chat", `{"body":"again"}`).Code)
}

func TestToggle(t *testing.T) {
	r := newRouter(newFakeController(), NewBroadcaster(8))

	w := do(t, r, http.MethodPost, "/api/media/audio/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"kind":"audio","enabled":false}`, w.Body.String())

	assert.Equal(t, http.StatusGone, do(t, r, http.MethodPost, "/api/media/video/toggle", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/media/screen/toggle", "").Code)
}

func TestLeave(t *testing.T) {
	ctrl := newFakeController()
	r := newRouter(ctrl, NewBroadcaster(8))

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/leave", "").Code)
	assert.Equal(t, http.StatusGone, do(t, r, http.MethodPost, "/api/leave", "").Code)
	assert.Equal(t, 1, ctrl.leaves)
}

func TestEvents_Stream(t *testing.T) {
	ctrl := newFakeController()
	bus := NewBroadcaster(8)
	srv := httptest.NewServer(newRouter(ctrl, bus))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "event:") {
				return strings.TrimPrefix(l, "event:")
			}
		}
		return ""
	}

	require.Equal(t, "state", next())

	bus.ChatReceived(domain.ChatMessage{Name: "Bob", Body: "hello"})
	require.Equal(t, "chat", next())
	require.True(t, lines.Scan())
	assert.Contains(t, lines.Text(), `"hello"`)

	bus.SessionEnded(core.ErrPeerLimitReached)
	require.Equal(t, "ended", next())
	require.True(t, lines.Scan())
	assert.Contains(t, lines.Text(), "Peer limit reached")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(core.ErrMediaUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(share.ErrNoVideoSender))
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
}
