// Package injector wires the runtime's pieces together: logger, event bus,
// flow pool, ECS manager, and the optional debug view server. The wiring
// itself is generated by google/wire from the provider set in injector.go.
package injector

import (
	"context"

	"go.uber.org/multierr"

	"github.com/zeusync/flowecs/internal/core/ecs"
	"github.com/zeusync/flowecs/internal/core/events/bus"
	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/internal/core/observability/log"
	"github.com/zeusync/flowecs/internal/debugview"
)

// Runtime bundles the constructed, ready-to-use pieces of a flowecs
// instance. It is the return value of ProvideRuntime.
type Runtime struct {
	Logger  *log.Logger
	Bus     bus.EventBus
	Pool    *flowpool.FlowPool
	Manager *ecs.Manager
	View    *debugview.Server
}

// Close stops the debug view server and drains the flow pool. Both are
// attempted even if the first fails, so a stuck HTTP listener never masks
// a worker leak; the returned error combines whichever of the two failed.
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	if r.View != nil {
		err = multierr.Append(err, r.View.Stop(ctx))
	}
	err = multierr.Append(err, r.Pool.Close())
	return err
}
