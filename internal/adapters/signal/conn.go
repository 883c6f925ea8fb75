package signal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens the websocket to the signaling server.
type Dialer func(ctx context.Context, rawURL string) (WSConn, error)

const protocolVersion = "2.0.0"

// SocketURL turns the server base url into the Phoenix websocket endpoint.
func SocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket/websocket"
	q := u.Query()
	q.Set("vsn", protocolVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func DialWebsocket(ctx context.Context, rawURL string) (WSConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
