package injector

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/wire"

	"github.com/zeusync/pushreach/internal/config"
	"github.com/zeusync/pushreach/internal/core/events/bus"
	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/core/systems/physics/kinematic"
	"github.com/zeusync/pushreach/internal/env"
	"github.com/zeusync/pushreach/internal/rollout"
	"github.com/zeusync/pushreach/internal/server"
)

// EnvFactory builds one environment over a fresh simulator. Environments
// built with distinct offsets draw from distinct seeds unless the
// configured seed is 0.
type EnvFactory func(offset uint64) (*env.Env, error)

var CoreSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEventBus,
	ProvideScene,
	ProvideEnvFactory,
)

var ServerSet = wire.NewSet(CoreSet, ProvideServer)

var RolloutSet = wire.NewSet(CoreSet, ProvideRunner)

// ProvideLogger builds the process logger from cfg.Log. The cleanup flushes
// buffered entries.
func ProvideLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(level, log.Options{
		Encoding:    cfg.Log.Encoding,
		OutputPaths: cfg.Log.Output,
	})
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideEventBus returns the in-process bus shared by environments and the
// rollout runner. Failed deliveries are logged.
func ProvideEventBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(deliveryLogger{logger: logger.With(log.String("component", "events"))})
	return b
}

// ProvideScene loads cfg.Scene, or the embedded scene when unset.
func ProvideScene(cfg config.Config) (*kinematic.Scene, error) {
	if cfg.Scene == "" {
		return kinematic.DefaultScene(), nil
	}
	scene, err := kinematic.LoadSceneFile(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Scene, err)
	}
	return scene, nil
}

func ProvideEnvFactory(cfg config.Config, scene *kinematic.Scene, logger log.Log, events bus.EventBus) EnvFactory {
	return func(offset uint64) (*env.Env, error) {
		ecfg := cfg.Env
		if ecfg.Seed != 0 {
			ecfg.Seed += offset
		}
		return env.New(kinematic.New(scene), ecfg,
			env.WithLogger(logger),
			env.WithEventBus(events),
		)
	}
}

// ProvideServer hosts one environment per websocket session.
func ProvideServer(cfg config.Config, factory EnvFactory, logger log.Log) *server.Server {
	var sessions atomic.Uint64
	return server.NewServer(cfg.Server, func() (*env.Env, error) {
		return factory(sessions.Add(1))
	}, logger)
}

func ProvideRunner(cfg config.Config, factory EnvFactory, logger log.Log, events bus.EventBus) (*rollout.Runner, error) {
	policy, err := rollout.PolicyByName(cfg.Rollout.Policy)
	if err != nil {
		return nil, err
	}
	opts := []rollout.Option{
		rollout.WithLogger(logger),
		rollout.WithEventBus(events),
	}
	if cfg.Env.Seed != 0 {
		opts = append(opts, rollout.WithSeed(cfg.Env.Seed))
	}
	workerEnv := func(worker int) (*env.Env, error) { return factory(uint64(worker)) }
	return rollout.NewRunner(workerEnv, policy, cfg.Rollout, opts...), nil
}

type deliveryLogger struct {
	logger log.Log
}

func (deliveryLogger) OnPublish(string, bus.Event) {}

func (d deliveryLogger) OnDelivered(eventType string, handlers int, err error, elapsed time.Duration) {
	if err == nil {
		return
	}
	d.logger.Warn("Event delivery failed",
		log.String("event_type", eventType),
		log.Int("handlers", handlers),
		log.Duration("elapsed", elapsed),
		log.Error(err))
}
