//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/pushreach/internal/config"
	"github.com/zeusync/pushreach/internal/rollout"
	"github.com/zeusync/pushreach/internal/server"
)

func InitializeServer(cfg config.Config) (*server.Server, func(), error) {
	wire.Build(ServerSet)
	return nil, nil, nil
}

func InitializeRunner(cfg config.Config) (*rollout.Runner, func(), error) {
	wire.Build(RolloutSet)
	return nil, nil, nil
}
