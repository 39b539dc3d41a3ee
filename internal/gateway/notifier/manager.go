package notifier

import (
	"fmt"

	"perpscan/internal/logger"
	"perpscan/internal/strategy"
)

// Manager fans every notification out to all connected channels. A delivery
// counts as successful when at least one channel accepts it; per-channel
// failures are logged, never propagated to trading code paths.
type Manager struct {
	channels []Channel
}

var _ Channel = (*Manager)(nil)

func NewManager(channels ...Channel) *Manager {
	active := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil || !ch.Connected() {
			continue
		}
		active = append(active, ch)
	}
	return &Manager{channels: active}
}

func (m *Manager) Name() string    { return "manager" }
func (m *Manager) Connected() bool { return len(m.channels) > 0 }

// ChannelNames lists the connected channels, for status reporting.
func (m *Manager) ChannelNames() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

func (m *Manager) fanOut(kind string, send func(Channel) error) error {
	if len(m.channels) == 0 {
		return nil
	}
	succeeded := 0
	var lastErr error
	for _, ch := range m.channels {
		if err := send(ch); err != nil {
			logger.Warnf("notify %s via %s failed: %v", kind, ch.Name(), err)
			lastErr = err
			continue
		}
		succeeded++
	}
	if succeeded == 0 && lastErr != nil {
		return fmt.Errorf("all notification channels failed: %w", lastErr)
	}
	return nil
}

func (m *Manager) SendSignal(sig strategy.Signal) error {
	return m.fanOut("signal", func(ch Channel) error { return ch.SendSignal(sig) })
}

func (m *Manager) SendOrderPlaced(ev OrderEvent) error {
	return m.fanOut("order", func(ch Channel) error { return ch.SendOrderPlaced(ev) })
}

func (m *Manager) SendOrderFailed(ev OrderEvent) error {
	return m.fanOut("order-failed", func(ch Channel) error { return ch.SendOrderFailed(ev) })
}

func (m *Manager) SendPositionClosed(ev PositionClosedEvent) error {
	return m.fanOut("position-closed", func(ch Channel) error { return ch.SendPositionClosed(ev) })
}

func (m *Manager) SendScanSummary(sum ScanSummary) error {
	return m.fanOut("scan-summary", func(ch Channel) error { return ch.SendScanSummary(sum) })
}

func (m *Manager) SendError(msg string) error {
	return m.fanOut("error", func(ch Channel) error { return ch.SendError(msg) })
}
