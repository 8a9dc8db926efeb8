package notifications

import (
	"context"
	"log/slog"

	"riftcap/internal/logging"
)

// MonitorNotifier adapts the service to the monitor's fire-and-forget
// surface. Send failures are logged, never propagated into the event loop.
type MonitorNotifier struct {
	service Service
	logger  *slog.Logger
}

// NewMonitorNotifier wraps service for use by the monitor.
func NewMonitorNotifier(service Service, logger *slog.Logger) *MonitorNotifier {
	return &MonitorNotifier{
		service: service,
		logger:  logging.WithComponent(logger, "notifications"),
	}
}

func (m *MonitorNotifier) RecordingStarted(ctx context.Context, phase, queueType string) {
	if err := m.service.NotifyRecordingStarted(ctx, phase, queueType); err != nil {
		m.logger.Warn("failed to send recording-started notification", logging.Error(err))
	}
}

func (m *MonitorNotifier) RecordingSaved(ctx context.Context, path string) {
	if err := m.service.NotifyRecordingSaved(ctx, path); err != nil {
		m.logger.Warn("failed to send capture-saved notification", logging.Error(err))
	}
}

func (m *MonitorNotifier) DodgeDetected(ctx context.Context, phase string) {
	if err := m.service.NotifyDodge(ctx, phase); err != nil {
		m.logger.Warn("failed to send dodge notification", logging.Error(err))
	}
}
