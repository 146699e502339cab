package notification

import (
	"errors"
)

// Manager fans a notification out to every configured channel.
type Manager struct {
	channels []Channel
}

// NewManager opens the channels selected by cfg.
func NewManager(cfg Config, opts ...Option) *Manager {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	m := &Manager{channels: o.extra}
	if cfg.Desktop {
		m.channels = append(m.channels, NewDesktopChannel(opts...))
	}
	if cfg.LogFile != "" {
		m.channels = append(m.channels, NewLogChannel(cfg.LogFile))
	}
	return m
}

// Send delivers n to every channel; a failing channel does not stop the others.
func (m *Manager) Send(n Notification) error {
	var errs []error
	for _, ch := range m.channels {
		if err := ch.Send(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every channel.
func (m *Manager) Close() error {
	var errs []error
	for _, ch := range m.channels {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChannelCount returns the number of open channels.
func (m *Manager) ChannelCount() int {
	return len(m.channels)
}
