package rtc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticConfiguration(t *testing.T) {
	cfg := StaticConfiguration(nil)
	require.Len(t, cfg.ICEServers, len(DefaultSTUNServers))
	assert.Equal(t, []string{DefaultSTUNServers[0]}, cfg.ICEServers[0].URLs)

	cfg = StaticConfiguration([]string{"stun:one.example.com:3478"})
	require.Len(t, cfg.ICEServers, 1)
}

func TestICEServer_URLsStringOrList(t *testing.T) {
	var servers []ICEServer
	require.NoError(t, json.Unmarshal([]byte(`[
		{"urls":"stun:a.example.com"},
		{"urls":["turn:b.example.com","turns:b.example.com"],"username":"u","credential":"p"}
	]`), &servers))

	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:a.example.com"}, servers[0].URLs)
	assert.Equal(t, []string{"turn:b.example.com", "turns:b.example.com"}, servers[1].URLs)
	assert.Equal(t, "u", servers[1].Username)
}

func iceServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchICEServers(t *testing.T) {
	srv := iceServer(t, http.StatusOK, `[
		{"urls":"stun:a.example.com"},
		{"urls":[]},
		{"urls":"turn:b.example.com","username":"u","credential":"p"}
	]`)

	servers, err := FetchICEServers(context.Background(), resty.New(), srv.URL)
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Empty(t, servers[0].Username)
	assert.Equal(t, "u", servers[1].Username)
	assert.Equal(t, "p", servers[1].Credential)
	assert.Equal(t, webrtc.ICECredentialTypePassword, servers[1].CredentialType)
}

func TestConfiguration_FallsBack(t *testing.T) {
	srv := iceServer(t, http.StatusInternalServerError, `{"error":"boom"}`)

	_, err := FetchICEServers(context.Background(), nil, srv.URL)
	require.Error(t, err)

	cfg := Configuration(context.Background(), resty.New(), srv.URL, []string{"stun:one.example.com"})
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:one.example.com"}, cfg.ICEServers[0].URLs)

	ok := iceServer(t, http.StatusOK, `[{"urls":"stun:fetched.example.com"}]`)
	cfg = Configuration(context.Background(), resty.New(), ok.URL, nil)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:fetched.example.com"}, cfg.ICEServers[0].URLs)
}
