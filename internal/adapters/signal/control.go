package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Huddle/internal/core"
)

// heartbeatLoop keeps the socket alive. A heartbeat still unanswered when the
// next one is due kills the socket.
func (s *Socket) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(s.opts.Heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !s.sendHeartbeat() {
				s.Close(fmt.Errorf("%w: %w", core.ErrChannelClosed, ErrHeartbeatTimeout))
				return
			}
		}
	}
}

func (s *Socket) sendHeartbeat() bool {
	ref := s.nextRef()
	s.mu.Lock()
	if s.pendingHeartbeat != "" {
		s.mu.Unlock()
		return false
	}
	s.pendingHeartbeat = ref
	s.mu.Unlock()

	if err := s.push(Message{Ref: ref, Topic: TopicPhoenix, Event: EventHeartbeat}); err != nil {
		s.logger.Warn().Err(err).Msg("heartbeat push")
	}
	return true
}
