//go:build !linux

package monitor

import (
	"context"
	"fmt"

	"github.com/genricoloni/sbcast/internal/domain"
	"go.uber.org/zap"
)

// MprisMonitor stub for non-Linux platforms
type MprisMonitor struct {
	logger *zap.Logger
	events chan domain.MediaEvent
}

// NewMprisMonitor creates a stub monitor that never reports a media source
func NewMprisMonitor(logger *zap.Logger) *MprisMonitor {
	ch := make(chan domain.MediaEvent)
	close(ch)
	return &MprisMonitor{logger: logger, events: ch}
}

// Start returns an error indicating MPRIS monitoring is not supported on this platform
func (m *MprisMonitor) Start(ctx context.Context) error {
	return fmt.Errorf("MPRIS monitoring is only supported on Linux systems")
}

// Events returns a closed channel since monitoring is not available
func (m *MprisMonitor) Events() <-chan domain.MediaEvent {
	return m.events
}

// Alive is always false, no source is ever registered
func (m *MprisMonitor) Alive(source string) bool {
	return false
}

// Stop is a no-op on non-Linux platforms
func (m *MprisMonitor) Stop(ctx context.Context) error {
	return nil
}
