package module

import "stackscout/internal/services/webhook/domain"

// Ports exposes the webhook receiver to other modules
type Ports struct {
	Receiver domain.ReceiverPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
