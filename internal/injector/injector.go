//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/flowecs/internal/core/ecs"
	"github.com/zeusync/flowecs/internal/core/events/bus"
	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/internal/core/observability/log"
	"github.com/zeusync/flowecs/internal/debugview"
)

func ProvideLogger(level log.Level) *log.Logger {
	wire.Build(log.Provide)
	return log.New(level)
}

func ProvideRuntime(poolCfg flowpool.Config, viewCfg debugview.Config, level log.Level) (*Runtime, error) {
	wire.Build(
		log.Provide,
		bus.New,
		flowpool.New,
		ecs.NewManager,
		debugview.New,
		wire.Struct(new(Runtime), "*"),
	)
	return nil, nil
}
