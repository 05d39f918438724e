package push

import (
	"trade_dash/internal/live"
	"trade_dash/internal/modules/config"
	"trade_dash/internal/modules/push/service"
	"trade_dash/internal/tokenstore"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("push",
		fx.Provide(
			func(cfg *config.Config, tokens tokenstore.Store) live.PushSource {
				return service.NewClient(cfg, tokens)
			},
		),
	)
}
