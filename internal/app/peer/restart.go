package peer

import (
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/pion/webrtc/v4"
)

func (m *Manager) onConnectionState(s webrtc.PeerConnectionState) {
	if m.isClosed() {
		return
	}
	switch s {
	case webrtc.PeerConnectionStateConnected:
		m.mu.Lock()
		m.stopTimersLocked()
		m.mu.Unlock()
		m.policy.Reset()
		m.setState(StateConnected)
	case webrtc.PeerConnectionStateFailed:
		m.mu.Lock()
		if m.watchdog != nil {
			m.watchdog.Stop()
			m.watchdog = nil
		}
		m.mu.Unlock()
		m.setState(StateFailed)
		m.scheduleRestart()
	}
}

// scheduleRestart arms the next ICE restart, or gives up when the budget is spent.
func (m *Manager) scheduleRestart() {
	m.mu.Lock()
	if m.state == StateClosed || m.restartTimer != nil {
		m.mu.Unlock()
		return
	}
	delay, ok := m.policy.Next()
	if !ok {
		m.state = StateFailed
		m.mu.Unlock()
		m.logger.Error().Msg("ice restart budget exhausted")
		m.events.TransportLost(core.ErrRestartBudgetExhausted)
		return
	}
	m.state = StateRestarting
	m.restartTimer = time.AfterFunc(delay, m.restart)
	m.mu.Unlock()
	m.logger.Warn().Dur("delay", delay).Msg("ice restart scheduled")
}

func (m *Manager) restart() {
	m.mu.Lock()
	m.restartTimer = nil
	m.mu.Unlock()
	if m.isClosed() {
		return
	}

	m.negMu.Lock()
	offer, err := m.transport.RestartICE()
	if err == nil {
		if m.pushOffer {
			err = m.channel.Push(core.EventSDPOffer, core.BodyPayload{Body: offer.SDP})
		} else {
			_, err = m.transport.Rollback()
		}
	}
	m.negMu.Unlock()
	if err != nil {
		m.logger.Error().Err(err).Msg("ice restart failed")
		m.scheduleRestart()
		return
	}
	if m.pushOffer {
		m.logger.Info().Msg("ice restart offer sent")
	} else {
		m.logger.Info().Msg("ice credentials renewed, waiting for server offer")
	}

	// A restart that never reaches connected counts against the budget.
	m.mu.Lock()
	if m.state == StateRestarting && m.watchdog == nil {
		m.watchdog = time.AfterFunc(m.timeout, m.restartTimedOut)
	}
	m.mu.Unlock()
}

func (m *Manager) restartTimedOut() {
	m.mu.Lock()
	m.watchdog = nil
	stuck := m.state == StateRestarting
	m.mu.Unlock()
	if stuck && !m.isClosed() {
		m.logger.Warn().Msg("ice restart timed out")
		m.scheduleRestart()
	}
}

func (m *Manager) stopTimersLocked() {
	if m.restartTimer != nil {
		m.restartTimer.Stop()
		m.restartTimer = nil
	}
	if m.watchdog != nil {
		m.watchdog.Stop()
		m.watchdog = nil
	}
}
