// Command flowdemo wires a full flowecs runtime (flow pool, ECS manager,
// event bus, debug view server) and runs a small simulated workload against
// it until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/flowecs/internal/core/ecs"
	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/internal/core/observability/log"
	"github.com/zeusync/flowecs/internal/debugview"
	"github.com/zeusync/flowecs/internal/injector"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := injector.ProvideRuntime(flowpool.DefaultConfig(), debugview.DefaultConfig(), log.LevelInfo)
	if err != nil {
		fmt.Println("error building runtime:", err)
		os.Exit(1)
	}

	if err = rt.View.Start(); err != nil {
		fmt.Println("error starting debug view:", err)
		os.Exit(1)
	}

	position := ecs.NewComponent[[2]float64]("position")
	velocity := ecs.NewComponent[[2]float64]("velocity")
	ecs.Register(rt.Manager, position)
	ecs.Register(rt.Manager, velocity)

	for i := 0; i < 1000; i++ {
		id := rt.Manager.GetID()
		position.Create(id, [2]float64{0, 0})
		velocity.Create(id, [2]float64{1, 1})
	}
	rt.Manager.Update()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	rt.Logger.Info("flowdemo running", log.String("debug_view", "ws://"+debugview.DefaultConfig().ListenAddr+"/ws"))

loop:
	for {
		select {
		case <-stopCh:
			break loop
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			ecs.Apply2(rt.Manager, position, velocity, func(p, v *[2]float64) {
				p[0] += v[0]
				p[1] += v[1]
			})
			rt.Manager.Wait()
			rt.Manager.Update()
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = rt.Close(shutdownCtx); err != nil {
		fmt.Println("error during shutdown:", err)
	}
}
