//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package wire

import (
	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/server"
	"github.com/Digital-Creators-Team/casino-engine/session"
	"github.com/google/wire"
)

// InitializeApp builds the HTTP application and everything behind it.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	panic(wire.Build(FullSet))
}

// InitializeRecovery builds the session used by the reconcile reset-round command.
func InitializeRecovery(cfg *config.Config) (*session.Service, func(), error) {
	panic(wire.Build(RecoverySet))
}
