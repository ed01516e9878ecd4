package modkit

import (
	"fmt"
	"strings"

	"stackscout/internal/modkit/repokit"
	"stackscout/internal/platform/config"
	"stackscout/internal/platform/events"
	"stackscout/internal/platform/logger"
	"stackscout/internal/platform/store"
)

// Deps is what a binary hands to every module it builds
// CH is optional, modules that need PG or Events say so with Must
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Events may carry a kafka sink, modules only see the bus
	Events *events.Bus
}

// Need names a dependency a module cannot run without
type Need string

const (
	NeedPG     Need = "PG"
	NeedEvents Need = "an events bus"
)

// Must panics when owner is built without one of needs
func (d Deps) Must(owner string, needs ...Need) {
	var missing []string
	for _, n := range needs {
		if (n == NeedPG && d.PG == nil) || (n == NeedEvents && d.Events == nil) {
			missing = append(missing, string(n))
		}
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("%s module requires %s", owner, strings.Join(missing, " and ")))
	}
}
