package rtc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// DefaultSTUNServers is used when no ICE configuration is supplied. There is
// no TURN relay, so peers behind symmetric NAT will not connect.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun3.l.google.com:19302",
	"stun:stun4.l.google.com:19302",
	"stun:stun.nextcloud.com:3478",
	"stun:stun.voipbuster.com",
	"stun:stun.voipstunt.com",
	"stun:stun.counterpath.com",
	"stun:stun.services.mozilla.com",
}

// ICEServer is the JSON shape served by an ICE config endpoint.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

func (s *ICEServer) UnmarshalJSON(data []byte) error {
	var raw struct {
		URLs       json.RawMessage `json:"urls"`
		Username   string          `json:"username"`
		Credential string          `json:"credential"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Username, s.Credential = raw.Username, raw.Credential
	var one string
	if err := json.Unmarshal(raw.URLs, &one); err == nil {
		s.URLs = []string{one}
		return nil
	}
	return json.Unmarshal(raw.URLs, &s.URLs)
}

func StaticConfiguration(urls []string) webrtc.Configuration {
	if len(urls) == 0 {
		urls = DefaultSTUNServers
	}
	servers := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range urls {
		servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
	}
	return webrtc.Configuration{ICEServers: servers}
}

// FetchICEServers loads the ICE server list from url.
func FetchICEServers(ctx context.Context, client *resty.Client, url string) ([]webrtc.ICEServer, error) {
	if client == nil {
		client = resty.New()
	}
	var parsed []ICEServer
	res, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&parsed).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch ice config: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch ice config: %s", res.Status())
	}

	servers := make([]webrtc.ICEServer, 0, len(parsed))
	for _, s := range parsed {
		if len(s.URLs) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			srv.Username = s.Username
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, srv)
	}
	log.Info().Str("module", "webrtc").Int("servers", len(servers)).Msg("got ice servers")
	return servers, nil
}

// Configuration fetches from configURL when set, falling back to the static list.
func Configuration(ctx context.Context, client *resty.Client, configURL string, stun []string) webrtc.Configuration {
	if configURL == "" {
		return StaticConfiguration(stun)
	}
	servers, err := FetchICEServers(ctx, client, configURL)
	if err != nil || len(servers) == 0 {
		log.Warn().Err(err).Str("module", "webrtc").Msg("ice config unavailable, using static STUN list")
		return StaticConfiguration(stun)
	}
	return webrtc.Configuration{ICEServers: servers}
}
