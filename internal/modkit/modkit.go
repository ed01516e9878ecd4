// Package modkit assembles stackscout service modules onto shared deps and the API router
package modkit

import "stackscout/internal/modkit/module"

// Module is implemented by every service module the API mounts
type Module = module.Module
