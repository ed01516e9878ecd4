package module

import "stackscout/internal/services/analysis/domain"

// Ports exposes the analysis capabilities to other modules and binaries
type Ports struct {
	Sweep  domain.SweepPort
	Worker domain.WorkerPort
	Reader domain.ReaderPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
