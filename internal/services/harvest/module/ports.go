package module

import "stackscout/internal/services/harvest/domain"

// Ports exposes the harvest capabilities to other modules and binaries
type Ports struct {
	Rank    domain.RankPort
	Ingest  domain.IngestPort
	Enrich  domain.EnrichPort
	Harvest domain.HarvestPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

