package backend

import (
	"trade_dash/internal/modules/backend/service"
	"trade_dash/internal/modules/config"
	"trade_dash/internal/tokenstore"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("backend",
		fx.Provide(
			func(cfg *config.Config) tokenstore.Store {
				return tokenstore.NewEnvStore(cfg.Auth.TokenEnv, cfg.Auth.TokenFile)
			},
			service.NewClient, // *service.Client
		),
	)
}
