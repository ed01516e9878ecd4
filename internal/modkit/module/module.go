// Package module holds the module contract and typed port lookup
// it sits apart from modkit so port packages can import it without cycles
package module

import phttp "stackscout/internal/platform/net/http"

// Module is a mountable unit that exposes its ports for cross wiring
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
