package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/gorilla/websocket"
)

func (s *Socket) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("writePump ctx done")
			return
		case data := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait)); err != nil {
				s.logger.Error().Err(err).Msg("writePump set deadline")
				s.Close(fmt.Errorf("%w: %v", core.ErrChannelClosed, err))
				return
			}
			if data == nil {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				s.shutdown()
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Error().Err(err).Msg("writePump write error")
				s.Close(fmt.Errorf("%w: %v", core.ErrChannelClosed, err))
				return
			}
		}
	}
}

func (s *Socket) readPump(ctx context.Context) {
	defer s.logger.Debug().Msg("readPump closing")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				s.Close(fmt.Errorf("%w: %v", core.ErrChannelClosed, err))
				return
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				s.logger.Error().Err(err).Msg("bad frame")
				continue
			}
			s.dispatch(msg)
		}
	}
}
